// Package credstore defines the credential holder consulted by the API
// client before every dispatch and mutated by the session manager.
package credstore

import (
	"errors"
	"time"
)

// ErrNoCredential is returned when an operation requires a stored
// credential and none is held.
var ErrNoCredential = errors.New("no credential stored")

// Credential is the opaque bearer token proving an authenticated session,
// plus an optional expiry hint. The zero value means "no credential".
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// IsZero reports whether the credential is empty.
func (c Credential) IsZero() bool {
	return c.Token == ""
}

// Expired reports whether the expiry hint, if present, has passed.
// A credential without a hint is never considered expired locally;
// the server remains the authority.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Store holds at most one live Credential with process-wide visibility.
// Set overwrites any previous value atomically for all readers; Get
// reports ok=false when nothing is held. Implementations must be safe
// for concurrent use.
type Store interface {
	Set(cred Credential) error
	Get() (Credential, bool)
	Clear() error
}
