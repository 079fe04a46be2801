package session

import "errors"

var (
	// ErrLoginInFlight indicates a credential exchange is already in
	// flight. The second attempt is rejected, not queued.
	ErrLoginInFlight = errors.New("login already in flight")
	// ErrInvalidTransition indicates a requested state change is not
	// allowed from the current state.
	ErrInvalidTransition = errors.New("invalid session state transition")
)
