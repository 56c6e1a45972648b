package api

import (
	"errors"
	"fmt"
)

// ErrLoginRequired marks failures that can only be resolved by sending the
// browser back through the identity provider. Handlers redirect to /login
// when errors.Is reports it.
var ErrLoginRequired = errors.New("login required")

// NetworkError wraps a transport failure where no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("backend unreachable: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is a 401 or 403 from the backend itself. It is not locally
// recoverable; the session has to be re-established.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string { return fmt.Sprintf("backend rejected credentials (%d)", e.Status) }

// Is lets errors.Is(err, ErrLoginRequired) match auth failures.
func (e *AuthError) Is(target error) bool { return target == ErrLoginRequired }

// ValidationError is a structured 4xx rejection. Message is surfaced to the
// user verbatim so they can correct their input.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend rejected request (%d)", e.Status)
}

// ServerError is a 5xx; surfaced as a generic failure, never retried.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string { return fmt.Sprintf("backend error (%d)", e.Status) }

// UserMessage converts a client error into the message shown on screen,
// preferring a structured server message when one is present.
func UserMessage(err error, fallback string) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.Message != "" {
		return vErr.Message
	}
	var nErr *NetworkError
	if errors.As(err, &nErr) {
		return "backend is unreachable"
	}
	return fallback
}
