package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	httpapp "github.com/bunchup/bunchup/internal/http"
)

type cliHarness struct {
	t         *testing.T
	base      string
	tokenFile string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	color.NoColor = true
	ts := httpapp.NewTestServer(t)
	return &cliHarness{t: t, base: ts.URL, tokenFile: filepath.Join(t.TempDir(), "token.json")}
}

func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	full := append([]string{"bunchup", "--quiet", "--api", h.base, "--token-file", h.tokenFile}, args...)
	err := newApp(&out).Run(full)
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("bunchup %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (h *cliHarness) signIn(username, role string) {
	h.t.Helper()
	h.mustRun("register", "-u", username, "-p", "pw123456", "--role", role)
	h.mustRun("login", "-u", username, "-p", "pw123456")
}

func TestMutationsNeedSignIn(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("unions", "join", "1"); !errors.Is(err, errSignIn) {
		t.Fatalf("expected errSignIn, got %v", err)
	}
	if out := h.mustRun("whoami"); !strings.Contains(out, "Not signed in") {
		t.Fatalf("unexpected whoami output %q", out)
	}
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice", "member")

	out := h.mustRun("whoami")
	if !strings.Contains(out, "alice") || !strings.Contains(out, "Participate in union activities") {
		t.Fatalf("unexpected whoami output %q", out)
	}

	h.mustRun("logout")
	if out := h.mustRun("whoami"); !strings.Contains(out, "Not signed in") {
		t.Fatalf("expected signed out, got %q", out)
	}
}

func TestMemberCannotCreateUnion(t *testing.T) {
	h := newHarness(t)
	h.signIn("bob", "member")
	if _, err := h.run("unions", "create", "--name", "Dockworkers"); !errors.Is(err, errOrganizer) {
		t.Fatalf("expected errOrganizer, got %v", err)
	}
}

func TestOrganizerUnionPostComment(t *testing.T) {
	h := newHarness(t)
	h.signIn("org", "organizer")

	h.mustRun("unions", "create", "--name", "Nurses United", "--industry", "Healthcare", "--tags", "shifts, pay")
	if out := h.mustRun("unions", "list", "--search", "nurses"); !strings.Contains(out, "Nurses United") {
		t.Fatalf("union missing from list: %q", out)
	}
	if out := h.mustRun("unions", "join", "1"); !strings.Contains(out, "Successfully joined Nurses United") {
		t.Fatalf("unexpected join output %q", out)
	}
	if out := h.mustRun("unions", "show", "1"); !strings.Contains(out, "Tags: shifts, pay") {
		t.Fatalf("unexpected show output %q", out)
	}

	h.mustRun("posts", "create", "--union", "1", "--title", "Rota changes", "--content", "Discuss here")
	if out := h.mustRun("posts", "list", "--union", "1"); !strings.Contains(out, "Rota changes") {
		t.Fatalf("post missing from list: %q", out)
	}

	h.mustRun("comments", "add", "--post", "1", "--content", "Count me in")
	h.mustRun("comments", "edit", "1", "--content", "Count me in twice")
	if out := h.mustRun("comments", "list", "--post", "1"); !strings.Contains(out, "Count me in twice") || !strings.Contains(out, "1 comments") {
		t.Fatalf("unexpected comments output %q", out)
	}
	h.mustRun("comments", "rm", "1")
	if out := h.mustRun("comments", "list", "--post", "1"); !strings.Contains(out, "0 comments") {
		t.Fatalf("expected no comments, got %q", out)
	}

	h.mustRun("feedback", "send", "--post", "1", "-m", "Too many meetings", "--anonymous")
	if out := h.mustRun("feedback", "list", "--post", "1"); !strings.Contains(out, "(anonymous)") {
		t.Fatalf("unexpected feedback output %q", out)
	}
}

func TestEventsRSVP(t *testing.T) {
	h := newHarness(t)
	h.signIn("org", "organizer")

	h.mustRun("events", "create", "--title", "Picket", "--start", "2030-01-02T15:00:00Z", "--end", "2030-01-02T17:00:00Z")
	if out := h.mustRun("events", "rsvp", "1"); !strings.Contains(out, "(1 going)") {
		t.Fatalf("unexpected rsvp output %q", out)
	}
	if out := h.mustRun("events", "list", "--mine"); !strings.Contains(out, "Picket") {
		t.Fatalf("expected event in my events, got %q", out)
	}
	if out := h.mustRun("events", "cancel", "1"); !strings.Contains(out, "(0 going)") {
		t.Fatalf("unexpected cancel output %q", out)
	}
	if out := h.mustRun("events", "list", "--mine"); !strings.Contains(out, "No events") {
		t.Fatalf("expected no events, got %q", out)
	}

	h.mustRun("events", "update", "1", "--location", "Main gate")
	if out := h.mustRun("events", "show", "1"); !strings.Contains(out, "Where: Main gate") || !strings.Contains(out, "Picket") {
		t.Fatalf("update must keep unset fields, got %q", out)
	}
	h.mustRun("events", "delete", "1")
	if _, err := h.run("events", "show", "1"); err == nil {
		t.Fatal("expected deleted event to be gone")
	}
}

func TestPollVoteOnce(t *testing.T) {
	h := newHarness(t)
	h.signIn("org", "organizer")

	h.mustRun("polls", "create", "--question", "Strike?", "-o", "Yes", "-o", "No")
	if out := h.mustRun("polls", "vote", "1", "1"); !strings.Contains(out, "✓ Voted") || !strings.Contains(out, "100%") {
		t.Fatalf("unexpected vote output %q", out)
	}
	if out := h.mustRun("polls", "vote", "1", "2"); !strings.Contains(out, "already voted") || !strings.Contains(out, "1 votes") {
		t.Fatalf("expected results after second vote, got %q", out)
	}
}

func TestAskFallsBackWhenOffline(t *testing.T) {
	h := newHarness(t)
	h.base = "http://127.0.0.1:1"
	out := h.mustRun("ask", "what are my rights?")
	if !strings.Contains(out, "That's a great question about union rights!") {
		t.Fatalf("expected canned reply, got %q", out)
	}
}

func TestEmptyAPIBaseIsRejected(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BUNCHUP_API_BASE", "")
	h.base = ""
	if _, err := h.run("unions", "list"); !errors.Is(err, errNoAPIBase) {
		t.Fatalf("expected errNoAPIBase, got %v", err)
	}
}
