package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	fallbackMessage      = "An error occurred"
	loginFallbackMessage = "Login failed"
	loginDefaultMessage  = "Invalid credentials"
)

// ErrNetwork wraps failures where no HTTP response was received.
var ErrNetwork = errors.New("network error")

// APIError is returned for every non-2xx response. Message is the server's
// detail text when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func networkError(err error) error {
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// newAPIError builds an APIError from a response body. unparsable is used
// when the body is not JSON; missing when it is JSON without a usable detail.
func newAPIError(status int, body []byte, unparsable, missing string) *APIError {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{Status: status, Message: unparsable}
	}
	if msg := detailMessage(payload.Detail); msg != "" {
		return &APIError{Status: status, Message: msg}
	}
	return &APIError{Status: status, Message: missing}
}

// detailMessage accepts a plain string detail or a validation list whose
// entries carry a "msg" field.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0].Msg
	}
	return ""
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func messageContains(err error, fragment string) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), fragment)
}

// IsAlreadyVoted reports the server's "already voted" refusal for a poll.
func IsAlreadyVoted(err error) bool {
	return messageContains(err, "already voted")
}

// IsAlreadyRSVPd reports the server's refusal of a duplicate RSVP.
func IsAlreadyRSVPd(err error) bool {
	return messageContains(err, "already rsvp")
}

func IsNotFound(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

func IsForbidden(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Status == http.StatusForbidden
}
