package gateway

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned from any call that received a 401. By the
// time the caller sees it, the session store has already been cleared and the
// forced-navigation hook has fired; in-flight application state for the
// request should be abandoned.
var ErrSessionExpired = errors.New("session expired")

// TransientError is a 5xx response. The session is not affected and the
// operation may be retried by the user.
type TransientError struct {
	Status    int
	RequestID string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("server unavailable (status %d)", e.Status)
}

// ValidationError is a non-401 4xx response. Message carries the
// server-supplied error text verbatim.
type ValidationError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NetworkError means the request got no response at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
