package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConflict reports a server-issued id that already names a different
	// local session. The two conversations are never merged.
	ErrConflict = errors.New("session id conflict")
	// ErrBusy is returned when a send is attempted while another is in flight.
	ErrBusy             = errors.New("another request is in progress")
	ErrNothingToRetry   = errors.New("no failed message to retry")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("invalid request")
	ErrConcurrentUpdate = errors.New("session was updated concurrently")
	ErrUpstream         = errors.New("AI service unavailable")
)

// APIError is a non-success response of the chat API
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAPIError(status int, message string) *APIError {
	var kind error
	switch status {
	case http.StatusBadRequest:
		kind = ErrValidation
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrConcurrentUpdate
	case http.StatusBadGateway:
		kind = ErrUpstream
	}
	return &APIError{StatusCode: status, Message: message, kind: kind}
}
