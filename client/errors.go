package client

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired indicates the server rejected (or the call required)
	// the session credential. The caller must not retry with the same
	// credential; the session manager has already been notified.
	ErrAuthRequired = errors.New("authentication required")
	// ErrValidation indicates the server rejected the request payload.
	// The field errors on the wrapping Error are caller-fixable.
	ErrValidation = errors.New("validation failed")
	// ErrTransport indicates no usable response was received. It says
	// nothing about credential validity; retrying is the caller's policy.
	ErrTransport = errors.New("transport failure")
)

// Error is the classified outcome of a failed API call. Use errors.Is
// against the package sentinels to branch on the failure class, and
// errors.As to reach the status code and field errors.
type Error struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// Message is the server-reported error, or a transport description.
	Message string
	// Fields holds server-reported per-field validation errors.
	Fields map[string]string

	kind  error
	cause error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func authRequiredError(status int, message string) *Error {
	return &Error{kind: ErrAuthRequired, Status: status, Message: message}
}

func validationError(status int, message string, fields map[string]string) *Error {
	return &Error{kind: ErrValidation, Status: status, Message: message, Fields: fields}
}

func transportError(message string, cause error) *Error {
	return &Error{kind: ErrTransport, Message: message, cause: cause}
}
