package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/bunchup/bunchup/internal/model"
)

type AuthService struct {
	c *Client
}

// Register creates an account. An empty role registers a member.
func (s *AuthService) Register(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	if role == "" {
		role = model.RoleMember
	}
	var user model.User
	body := model.Registration{Username: username, Password: password, Role: role}
	if err := s.c.do(ctx, http.MethodPost, "/api/auth/register", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token. The token endpoint takes a
// form-encoded password grant rather than JSON, so this bypasses do. The
// token is returned, not stored.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.c.URL("/api/auth/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.c.HTTPClient.Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, respBody, loginFallbackMessage, loginDefaultMessage)
	}

	var token model.Token
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, &APIError{Status: resp.StatusCode, Message: loginDefaultMessage}
	}
	return &token, nil
}

// Me fetches the user the stored token belongs to.
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := s.c.get(ctx, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
