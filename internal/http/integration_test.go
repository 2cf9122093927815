package httpapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bunchup/bunchup/internal/model"
)

type testClient struct {
	server *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	ts := NewTestServer(t)
	return &testClient{server: ts, client: ts.Client()}
}

// do sends a JSON request and returns the status and raw body.
func (c *testClient) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func (c *testClient) decode(t *testing.T, method, path string, body any, token string, want int, out any) {
	t.Helper()
	status, raw := c.do(t, method, path, body, token)
	if status != want {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, status, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func (c *testClient) login(t *testing.T, username, password string) (int, []byte) {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := c.client.Post(c.server.URL+"/api/auth/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

// account registers a user with role and returns a bearer token for it.
func (c *testClient) account(t *testing.T, username string, role model.Role) string {
	t.Helper()
	c.decode(t, http.MethodPost, "/api/auth/register", model.Registration{Username: username, Password: "pw123456", Role: role}, "", http.StatusOK, nil)
	status, raw := c.login(t, username, "pw123456")
	if status != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, status, raw)
	}
	var tok model.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return tok.AccessToken
}

func detailOf(t *testing.T, raw []byte) string {
	t.Helper()
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode detail: %v (%s)", err, raw)
	}
	switch d := body.Detail.(type) {
	case string:
		return d
	case []any:
		if len(d) > 0 {
			if m, ok := d[0].(map[string]any); ok {
				return fmt.Sprint(m["msg"])
			}
		}
	}
	return ""
}

func TestAuthFlow(t *testing.T) {
	c := newTestClient(t)

	var user model.User
	c.decode(t, http.MethodPost, "/api/auth/register", map[string]string{"username": "alice", "password": "pw123456"}, "", http.StatusOK, &user)
	if user.Role != model.RoleMember || user.Username != "alice" {
		t.Fatalf("expected member alice, got %+v", user)
	}

	status, raw := c.do(t, http.MethodPost, "/api/auth/register", map[string]string{"username": "alice", "password": "x"}, "")
	if status != http.StatusBadRequest || detailOf(t, raw) != "Username already taken" {
		t.Fatalf("expected duplicate username error, got %d %s", status, raw)
	}

	status, raw = c.login(t, "alice", "nope")
	if status != http.StatusUnauthorized || detailOf(t, raw) != "Incorrect username or password" {
		t.Fatalf("expected bad credentials, got %d %s", status, raw)
	}

	status, raw = c.login(t, "alice", "pw123456")
	if status != http.StatusOK {
		t.Fatalf("login: %d %s", status, raw)
	}
	var tok model.Token
	_ = json.Unmarshal(raw, &tok)
	if tok.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", tok.TokenType)
	}

	var me model.User
	c.decode(t, http.MethodGet, "/api/auth/me", nil, tok.AccessToken, http.StatusOK, &me)
	if me.ID != user.ID {
		t.Fatalf("expected me to be alice, got %+v", me)
	}

	status, raw = c.do(t, http.MethodGet, "/api/auth/me", nil, "not-a-jwt")
	if status != http.StatusUnauthorized || detailOf(t, raw) != "Could not validate credentials" {
		t.Fatalf("expected invalid token rejection, got %d %s", status, raw)
	}
	status, _ = c.do(t, http.MethodGet, "/api/auth/me", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestValidationDetailIsList(t *testing.T) {
	c := newTestClient(t)
	status, raw := c.do(t, http.MethodPost, "/api/auth/register", map[string]string{"username": "bob"}, "")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if detailOf(t, raw) != "Password is required" {
		t.Fatalf("unexpected validation detail %s", raw)
	}
}

func TestUnionsRoleGateAndMembership(t *testing.T) {
	c := newTestClient(t)
	organizer := c.account(t, "olga", model.RoleOrganizer)
	member := c.account(t, "mia", model.RoleMember)

	in := model.UnionCreate{Name: "Nurses United", Industry: "Health Care", Tags: "nursing, hospitals"}
	status, raw := c.do(t, http.MethodPost, "/api/unions/", in, member)
	if status != http.StatusForbidden || detailOf(t, raw) != "Insufficient permissions" {
		t.Fatalf("expected member to be refused, got %d %s", status, raw)
	}

	var union model.Union
	c.decode(t, http.MethodPost, "/api/unions/", in, organizer, http.StatusOK, &union)
	status, raw = c.do(t, http.MethodPost, "/api/unions", in, organizer)
	if status != http.StatusBadRequest || detailOf(t, raw) != "Union already exists" {
		t.Fatalf("expected duplicate union, got %d %s", status, raw)
	}

	var joined model.Message
	c.decode(t, http.MethodPost, fmt.Sprintf("/api/unions/%d/join", union.ID), nil, member, http.StatusOK, &joined)
	if joined.Message != "Successfully joined Nurses United" {
		t.Fatalf("unexpected join message %q", joined.Message)
	}
	status, raw = c.do(t, http.MethodPost, fmt.Sprintf("/api/unions/%d/join", union.ID), nil, member)
	if status != http.StatusBadRequest || detailOf(t, raw) != "Already a member of this union" {
		t.Fatalf("expected double join refusal, got %d %s", status, raw)
	}

	var listed []model.Union
	c.decode(t, http.MethodGet, "/api/unions?search=NURS", nil, member, http.StatusOK, &listed)
	if len(listed) != 1 || !listed[0].IsMember || listed[0].MemberCount != 1 {
		t.Fatalf("expected member view of union, got %+v", listed)
	}
	c.decode(t, http.MethodGet, "/api/unions/", nil, "", http.StatusOK, &listed)
	if len(listed) != 1 || listed[0].IsMember {
		t.Fatalf("anonymous listing must not mark membership, got %+v", listed)
	}

	var industries []string
	c.decode(t, http.MethodGet, "/api/unions/industries", nil, "", http.StatusOK, &industries)
	if len(industries) != 1 || industries[0] != "Health Care" {
		t.Fatalf("unexpected industries %v", industries)
	}

	var members []model.Member
	c.decode(t, http.MethodGet, fmt.Sprintf("/api/unions/%d/members", union.ID), nil, "", http.StatusOK, &members)
	if len(members) != 1 || members[0].Username != "mia" {
		t.Fatalf("unexpected members %+v", members)
	}

	c.decode(t, http.MethodDelete, fmt.Sprintf("/api/unions/%d/leave", union.ID), nil, member, http.StatusOK, nil)
	status, raw = c.do(t, http.MethodDelete, fmt.Sprintf("/api/unions/%d/leave", union.ID), nil, member)
	if status != http.StatusBadRequest || detailOf(t, raw) != "Not a member of this union" {
		t.Fatalf("expected leave refusal, got %d %s", status, raw)
	}

	status, raw = c.do(t, http.MethodGet, "/api/unions/999", nil, "")
	if status != http.StatusNotFound || detailOf(t, raw) != "Union not found" {
		t.Fatalf("expected union not found, got %d %s", status, raw)
	}
}

func TestPostsCommentsAndFeedback(t *testing.T) {
	c := newTestClient(t)
	organizer := c.account(t, "olga", model.RoleOrganizer)
	alice := c.account(t, "alice", model.RoleMember)
	bob := c.account(t, "bob", model.RoleMember)

	var union model.Union
	c.decode(t, http.MethodPost, "/api/unions/", model.UnionCreate{Name: "Dock Workers"}, organizer, http.StatusOK, &union)

	var post model.Post
	c.decode(t, http.MethodPost, fmt.Sprintf("/api/posts/union/%d", union.ID), model.PostCreate{Title: "T", Content: "C"}, organizer, http.StatusOK, &post)
	if post.UnionID == nil || *post.UnionID != union.ID {
		t.Fatalf("expected post under union, got %+v", post)
	}
	status, raw := c.do(t, http.MethodPost, "/api/posts/union/999", model.PostCreate{Title: "T", Content: "C"}, organizer)
	if status != http.StatusNotFound || detailOf(t, raw) != "Union not found" {
		t.Fatalf("expected union not found, got %d %s", status, raw)
	}

	var comment model.Comment
	c.decode(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), model.CommentInput{Content: "hello"}, alice, http.StatusOK, &comment)
	if comment.User.Username != "alice" {
		t.Fatalf("expected author on comment, got %+v", comment)
	}

	status, raw = c.do(t, http.MethodPut, fmt.Sprintf("/api/posts/comments/%d", comment.ID), model.CommentInput{Content: "hijack"}, bob)
	if status != http.StatusForbidden || detailOf(t, raw) != "Not authorized to modify this comment" {
		t.Fatalf("expected ownership refusal, got %d %s", status, raw)
	}

	var edited model.Comment
	c.decode(t, http.MethodPut, fmt.Sprintf("/api/posts/comments/%d", comment.ID), model.CommentInput{Content: "edited"}, alice, http.StatusOK, &edited)
	if edited.Content != "edited" || edited.ID != comment.ID {
		t.Fatalf("unexpected edit result %+v", edited)
	}

	var got model.Post
	c.decode(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil, "", http.StatusOK, &got)
	if len(got.Comments) != 1 {
		t.Fatalf("expected one embedded comment, got %+v", got.Comments)
	}

	c.decode(t, http.MethodDelete, fmt.Sprintf("/api/posts/comments/%d", comment.ID), nil, alice, http.StatusNoContent, nil)
	status, raw = c.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/comments/%d", comment.ID), nil, alice)
	if status != http.StatusNotFound || detailOf(t, raw) != "Comment not found" {
		t.Fatalf("expected comment not found, got %d %s", status, raw)
	}

	var fb model.Feedback
	c.decode(t, http.MethodPost, fmt.Sprintf("/api/feedbacks/post/%d", post.ID), model.FeedbackCreate{Message: "thanks", Anonymous: true}, bob, http.StatusOK, &fb)
	if !fb.Anonymous || fb.PostID == nil {
		t.Fatalf("unexpected feedback %+v", fb)
	}
	var general model.Feedback
	c.decode(t, http.MethodPost, "/api/feedbacks/", model.FeedbackCreate{Message: "site idea"}, bob, http.StatusOK, &general)
	if general.PostID != nil {
		t.Fatalf("general feedback must not carry a post, got %+v", general)
	}
	var listed []model.Feedback
	c.decode(t, http.MethodGet, fmt.Sprintf("/api/feedbacks/post/%d", post.ID), nil, "", http.StatusOK, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected one post feedback, got %d", len(listed))
	}
	status, raw = c.do(t, http.MethodGet, "/api/feedbacks/999", nil, "")
	if status != http.StatusNotFound || detailOf(t, raw) != "Feedback not found" {
		t.Fatalf("expected feedback not found, got %d %s", status, raw)
	}
}

func TestEventsAndRSVP(t *testing.T) {
	c := newTestClient(t)
	organizer := c.account(t, "olga", model.RoleOrganizer)
	alice := c.account(t, "alice", model.RoleMember)

	start, _ := model.ParseTimestamp("2030-05-01T18:00:00Z")
	before, _ := model.ParseTimestamp("2030-05-01T17:00:00Z")
	status, raw := c.do(t, http.MethodPost, "/api/events/", model.EventInput{Title: "Rally", StartTime: start, EndTime: &before}, organizer)
	if status != http.StatusBadRequest || detailOf(t, raw) != "end_time must be after start_time" {
		t.Fatalf("expected time order refusal, got %d %s", status, raw)
	}

	var ev model.Event
	c.decode(t, http.MethodPost, "/api/events", model.EventInput{Title: "Rally", Location: "City Hall", StartTime: start}, organizer, http.StatusOK, &ev)
	if ev.Creator.Username != "olga" || ev.AttendeeCount != 0 {
		t.Fatalf("unexpected event %+v", ev)
	}

	var rsvp model.RSVPResult
	c.decode(t, http.MethodPost, fmt.Sprintf("/api/events/%d/rsvp", ev.ID), nil, alice, http.StatusOK, &rsvp)
	if rsvp.AttendeeCount != 1 || rsvp.Message != "RSVP successful" {
		t.Fatalf("unexpected rsvp %+v", rsvp)
	}
	status, raw = c.do(t, http.MethodPost, fmt.Sprintf("/api/events/%d/rsvp", ev.ID), nil, alice)
	if status != http.StatusBadRequest || detailOf(t, raw) != "Already RSVP'd to this event" {
		t.Fatalf("expected duplicate rsvp refusal, got %d %s", status, raw)
	}

	var attendees model.Attendees
	c.decode(t, http.MethodGet, fmt.Sprintf("/api/events/%d/attendees", ev.ID), nil, "", http.StatusOK, &attendees)
	if attendees.AttendeeCount != 1 || attendees.Attendees[0].Username != "alice" {
		t.Fatalf("unexpected attendees %+v", attendees)
	}

	status, raw = c.do(t, http.MethodPut, fmt.Sprintf("/api/events/%d", ev.ID), model.EventInput{Title: "Mine now", StartTime: start}, alice)
	if status != http.StatusForbidden || detailOf(t, raw) != "Only the event creator or admins can edit this event" {
		t.Fatalf("expected edit refusal, got %d %s", status, raw)
	}
	var updated model.Event
	c.decode(t, http.MethodPut, fmt.Sprintf("/api/events/%d", ev.ID), model.EventInput{Title: "Big Rally", StartTime: start}, organizer, http.StatusOK, &updated)
	if updated.Title != "Big Rally" || updated.AttendeeCount != 1 {
		t.Fatalf("unexpected update %+v", updated)
	}

	c.decode(t, http.MethodDelete, fmt.Sprintf("/api/events/%d/rsvp", ev.ID), nil, alice, http.StatusOK, &rsvp)
	if rsvp.AttendeeCount != 0 || rsvp.Message != "RSVP cancelled" {
		t.Fatalf("unexpected cancel %+v", rsvp)
	}
	status, raw = c.do(t, http.MethodDelete, fmt.Sprintf("/api/events/%d/rsvp", ev.ID), nil, alice)
	if status != http.StatusNotFound || detailOf(t, raw) != "RSVP not found" {
		t.Fatalf("expected rsvp not found, got %d %s", status, raw)
	}

	var msg model.Message
	c.decode(t, http.MethodDelete, fmt.Sprintf("/api/events/%d", ev.ID), nil, organizer, http.StatusOK, &msg)
	if msg.Message != "Event deleted successfully" {
		t.Fatalf("unexpected delete message %q", msg.Message)
	}
	status, _ = c.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d", ev.ID), nil, "")
	if status != http.StatusNotFound {
		t.Fatalf("expected deleted event to be gone, got %d", status)
	}
}

func TestPollsVoteOnce(t *testing.T) {
	c := newTestClient(t)
	organizer := c.account(t, "olga", model.RoleOrganizer)
	alice := c.account(t, "alice", model.RoleMember)

	status, raw := c.do(t, http.MethodPost, "/api/polls/", model.PollCreate{Question: "Strike?", Options: []model.PollOptionInput{{Text: "Yes"}}}, organizer)
	if status != http.StatusBadRequest || detailOf(t, raw) != "A poll requires at least two options" {
		t.Fatalf("expected option count refusal, got %d %s", status, raw)
	}

	var poll model.Poll
	c.decode(t, http.MethodPost, "/api/polls/", model.PollCreate{Question: "Strike?", Options: []model.PollOptionInput{{Text: "Yes"}, {Text: "No"}}}, organizer, http.StatusOK, &poll)
	if len(poll.Options) != 2 {
		t.Fatalf("expected two options, got %+v", poll)
	}

	var res model.PollResults
	c.decode(t, http.MethodPost, fmt.Sprintf("/api/polls/%d/vote", poll.ID), model.VoteInput{OptionID: poll.Options[0].ID}, alice, http.StatusOK, &res)
	if res.Total() != 1 || res.Results[0].Votes != 1 {
		t.Fatalf("unexpected results %+v", res)
	}

	status, raw = c.do(t, http.MethodPost, fmt.Sprintf("/api/polls/%d/vote", poll.ID), model.VoteInput{OptionID: poll.Options[1].ID}, alice)
	if status != http.StatusBadRequest || detailOf(t, raw) != "User already voted in this poll" {
		t.Fatalf("expected double vote refusal, got %d %s", status, raw)
	}
	status, raw = c.do(t, http.MethodPost, fmt.Sprintf("/api/polls/%d/vote", poll.ID), model.VoteInput{OptionID: 9999}, alice)
	if status != http.StatusNotFound || detailOf(t, raw) != "Option not found for this poll" {
		t.Fatalf("expected option not found, got %d %s", status, raw)
	}

	c.decode(t, http.MethodGet, fmt.Sprintf("/api/polls/%d/results", poll.ID), nil, "", http.StatusOK, &res)
	if res.Total() != 1 {
		t.Fatalf("expected one vote total, got %d", res.Total())
	}
	status, raw = c.do(t, http.MethodGet, "/api/polls/999/results", nil, "")
	if status != http.StatusNotFound || detailOf(t, raw) != "Poll not found" {
		t.Fatalf("expected poll not found, got %d %s", status, raw)
	}

	var polls []model.Poll
	c.decode(t, http.MethodGet, "/api/polls", nil, "", http.StatusOK, &polls)
	if len(polls) != 1 {
		t.Fatalf("expected one poll, got %d", len(polls))
	}
}

func TestChatbotAsk(t *testing.T) {
	c := newTestClient(t)
	var ans model.ChatbotAnswer
	c.decode(t, http.MethodPost, "/api/chatbot/ask", model.ChatbotQuestion{Question: "Can they fire me for asking about overtime?"}, "", http.StatusOK, &ans)
	if ans.Answer != chatbotGuidance {
		t.Fatalf("unexpected answer %q", ans.Answer)
	}
	if len(ans.Suggestions) != 4 {
		t.Fatalf("expected both rule sets to apply, got %v", ans.Suggestions)
	}
}

func TestLoginAttemptsAreThrottled(t *testing.T) {
	c := newTestClient(t)
	c.account(t, "alice", model.RoleMember)
	c.account(t, "bob", model.RoleMember)

	for i := 0; i < loginAttempts; i++ {
		if status, raw := c.login(t, "alice", "wrong"); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d: %s", i+1, status, raw)
		}
	}
	status, raw := c.login(t, "Alice", "pw123456")
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", status, raw)
	}
	if got := detailOf(t, raw); got != "Too many login attempts, try again later" {
		t.Fatalf("unexpected detail %q", got)
	}
	if status, raw := c.login(t, "bob", "pw123456"); status != http.StatusOK {
		t.Fatalf("other users must not be throttled, got %d: %s", status, raw)
	}
}
