package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/tokenstore"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) (*Client, *tokenstore.Memory) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	tokens := tokenstore.NewMemory()
	return New(ts.URL, tokens), tokens
}

func TestClientNew(t *testing.T) {
	c := New("https://example.com/", nil)

	if c.BaseURL != "https://example.com" {
		t.Errorf("expected trailing slash trimmed, got '%s'", c.BaseURL)
	}
	if c.HTTPClient == nil {
		t.Error("expected non-nil HTTP client")
	}
	if c.IsAuthenticated(context.Background()) {
		t.Error("expected new client to not be authenticated")
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://api.test", "/api/posts/1", "http://api.test/api/posts/1"},
		{"http://api.test/", "api/posts/1", "http://api.test/api/posts/1"},
		{"", "/api/auth/me", "/api/auth/me"},
		{"", "api/auth/me", "/api/auth/me"},
	}
	for _, tt := range tests {
		if got := New(tt.base, nil).URL(tt.path); got != tt.want {
			t.Errorf("URL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

type originTransport struct {
	origin *url.URL
}

func (o originTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = o.origin.Scheme
	r.URL.Host = o.origin.Host
	return http.DefaultTransport.RoundTrip(r)
}

func TestRelativeBase(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/unions/industries" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `["Healthcare"]`)
	}))
	t.Cleanup(ts.Close)
	ctx := context.Background()

	bare := New("", nil)
	if _, err := bare.Unions.Industries(ctx); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error without a transport, got %v", err)
	}

	origin, _ := url.Parse(ts.URL)
	c := New("", nil)
	c.HTTPClient.Transport = originTransport{origin: origin}
	got, err := c.Unions.Industries(ctx)
	if err != nil {
		t.Fatalf("industries: %v", err)
	}
	if len(got) != 1 || got[0] != "Healthcare" {
		t.Fatalf("unexpected industries %v", got)
	}
}

func TestHeadersAndBearer(t *testing.T) {
	var gotAuth, gotType, gotRequestID string
	c, tokens := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode(model.User{ID: 7, Username: "alice", Role: model.RoleMember})
	})
	ctx := context.Background()

	if _, err := c.Auth.Me(ctx); err != nil {
		t.Fatalf("me: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no authorization header without token, got %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Fatalf("expected json content type on GET, got %q", gotType)
	}
	if gotRequestID == "" {
		t.Fatal("expected request id header")
	}

	_ = tokens.Save(ctx, "tok-123")
	user, err := c.Auth.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if user.Username != "alice" || user.ID != 7 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", http.StatusBadRequest, `{"detail":"Union already exists"}`, "Union already exists"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","title"],"msg":"field required"}]}`, "field required"},
		{"no detail", http.StatusInternalServerError, `{"error":"boom"}`, "An error occurred"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "An error occurred"},
		{"empty body", http.StatusNotFound, ``, "An error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Posts.Get(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if err.Error() != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	c := New(base, nil)
	_, err := c.Events.List(context.Background(), Page{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if _, ok := asAPIError(err); ok {
		t.Fatal("network failures must not be APIErrors")
	}
}

func TestLoginIsFormEncoded(t *testing.T) {
	c, tokens := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "pw123456" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect username or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"jwt","token_type":"bearer"}`)
	})
	ctx := context.Background()

	tok, err := c.Auth.Login(ctx, "alice", "pw123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.AccessToken != "jwt" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if stored, _ := tokens.Load(ctx); stored != "" {
		t.Fatal("login must not store the token itself")
	}

	_, err = c.Auth.Login(ctx, "alice", "wrong")
	if err == nil || err.Error() != "Incorrect username or password" {
		t.Fatalf("expected server detail, got %v", err)
	}
	if !IsUnauthorized(err) {
		t.Fatal("expected unauthorized classification")
	}
}

func TestLoginFallbacks(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`not json`, "Login failed"},
		{`{}`, "Invalid credentials"},
	}
	for _, tt := range tests {
		c, _ := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, tt.body)
		})
		_, err := c.Auth.Login(context.Background(), "a", "b")
		if err == nil || err.Error() != tt.want {
			t.Errorf("body %q: expected %q, got %v", tt.body, tt.want, err)
		}
	}
}

func TestListQueries(t *testing.T) {
	var gotQuery string
	c, _ := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[]`)
	})
	ctx := context.Background()

	if _, err := c.Polls.List(ctx, Page{}); err != nil {
		t.Fatalf("list polls: %v", err)
	}
	if gotQuery != "limit=50&skip=0" {
		t.Errorf("unexpected poll query %q", gotQuery)
	}

	if _, err := c.Unions.List(ctx, UnionFilter{Page: Page{Skip: 10, Limit: 5}, Industry: "Health Care", Search: "nurse"}); err != nil {
		t.Fatalf("list unions: %v", err)
	}
	if gotQuery != "industry=Health+Care&limit=5&search=nurse&skip=10" {
		t.Errorf("unexpected union query %q", gotQuery)
	}

	if _, err := c.Posts.ListByUnion(ctx, 3, Page{}); err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if gotQuery != "limit=100&skip=0" {
		t.Errorf("unexpected post query %q", gotQuery)
	}
}

func TestDeleteWithEmptyBody(t *testing.T) {
	var method, path string
	c, _ := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.Comments.Delete(context.Background(), 42); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if method != http.MethodDelete || path != "/api/posts/comments/42" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}

func TestClassifiers(t *testing.T) {
	voted := &APIError{Status: 400, Message: "User already voted in this poll"}
	rsvpd := &APIError{Status: 400, Message: "Already RSVP'd to this event"}
	missing := &APIError{Status: 404, Message: "Poll not found"}

	if !IsAlreadyVoted(voted) || IsAlreadyVoted(rsvpd) {
		t.Error("IsAlreadyVoted misclassified")
	}
	if !IsAlreadyRSVPd(rsvpd) || IsAlreadyRSVPd(voted) {
		t.Error("IsAlreadyRSVPd misclassified")
	}
	if !IsNotFound(missing) || IsNotFound(voted) {
		t.Error("IsNotFound misclassified")
	}
	if IsAlreadyVoted(errors.New("User already voted in this poll")) {
		t.Error("plain errors are not API errors")
	}
}
