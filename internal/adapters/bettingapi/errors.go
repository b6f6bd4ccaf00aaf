package bettingapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel error kinds for the betting backend client.
var (
	// ErrUpstream marks any failure talking to the backend, including non-2xx replies.
	ErrUpstream = errors.New("betting backend request failed")
	// ErrBetTypeNotFound is returned when no bet type carries the requested code.
	ErrBetTypeNotFound = errors.New("bet type not found")
	// ErrDecode marks a 2xx reply whose body could not be decoded.
	ErrDecode = errors.New("decode backend response")
)

const maxRawMessage = 200

// APIError is a non-2xx reply from the backend.
type APIError struct {
	Status         int      `json:"-"`
	Message        string   `json:"error"`
	Detail         string   `json:"detail"`
	NonFieldErrors []string `json:"non_field_errors"`
	Body           string   `json:"-"`
}

// Error renders the most specific message the backend gave.
func (e *APIError) Error() string {
	return fmt.Sprintf("betting backend: status %d: %s", e.Status, e.Text())
}

// Text returns the user-facing part of the error: error, then detail, then
// non_field_errors, then the raw body.
func (e *APIError) Text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	case len(e.NonFieldErrors) > 0:
		return strings.Join(e.NonFieldErrors, "; ")
	}
	raw := strings.TrimSpace(e.Body)
	if raw == "" {
		return http.StatusText(e.Status)
	}
	if len(raw) > maxRawMessage {
		raw = raw[:maxRawMessage] + "..."
	}
	return raw
}

// Unwrap lets callers match every backend failure with ErrUpstream.
func (e *APIError) Unwrap() error { return ErrUpstream }

// parseAPIError builds an APIError from a non-2xx reply. Bodies that are not
// a JSON object are kept raw.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{}
	if err := json.Unmarshal(body, e); err != nil {
		e = &APIError{}
	}
	e.Status = status
	e.Body = string(body)
	return e
}
