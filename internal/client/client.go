// Package client provides a Go client for the BunchUp API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bunchup/bunchup/internal/tokenstore"
)

const (
	defaultLimit     = 100
	defaultPollLimit = 50
)

// Client is a BunchUp API client. The bearer token is read from Tokens on
// every request, so a sign-in or sign-out is visible to all resource clients.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     tokenstore.Store

	Auth     *AuthService
	Posts    *PostsService
	Comments *CommentsService
	Feedback *FeedbackService
	Unions   *UnionsService
	Events   *EventsService
	Polls    *PollsService
	Chatbot  *ChatbotService
}

// New creates a client for baseURL. An empty baseURL produces same-origin
// relative request paths; net/http cannot send those, so HTTPClient then
// needs a Transport that fills in the origin. A nil token store keeps the
// token in memory.
func New(baseURL string, tokens tokenstore.Store) *Client {
	if tokens == nil {
		tokens = tokenstore.NewMemory()
	}
	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Tokens:     tokens,
	}
	c.Auth = &AuthService{c: c}
	c.Posts = &PostsService{c: c}
	c.Comments = &CommentsService{c: c}
	c.Feedback = &FeedbackService{c: c}
	c.Unions = &UnionsService{c: c}
	c.Events = &EventsService{c: c}
	c.Polls = &PollsService{c: c}
	c.Chatbot = &ChatbotService{c: c}
	return c
}

// Page selects a window of a list endpoint. A zero Limit uses the endpoint default.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) values(defLimit int) url.Values {
	limit := p.Limit
	if limit <= 0 {
		limit = defLimit
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// URL resolves path against BaseURL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// Token returns the stored bearer token, or "" when signed out.
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.Tokens.Load(ctx)
}

// IsAuthenticated reports whether a bearer token is stored. It does not
// check the token with the server.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	tok, err := c.Tokens.Load(ctx)
	return err == nil && tok != ""
}

// do performs a JSON request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	token, err := c.Tokens.Load(ctx)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody, fallbackMessage, fallbackMessage)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}
