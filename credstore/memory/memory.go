// Package memory provides an in-process implementation of credstore.Store.
package memory

import (
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/deskhand/credstore"
)

// Store is a thread-safe in-memory credential holder. The token bytes are
// kept in a memguard Enclave (encrypted at rest in memory) so the bearer
// token never sits in plain heap memory between requests. The credential
// does not survive process exit; use the bbolt backend when the product
// wants a session to survive a restart.
type Store struct {
	mu        sync.RWMutex
	token     *memguard.Enclave
	expiresAt time.Time
}

var _ credstore.Store = (*Store)(nil)

// NewStore creates an empty in-memory credential store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the held credential. The previous value is unreachable to
// all readers as soon as Set returns.
func (s *Store) Set(cred credstore.Credential) error {
	var enclave *memguard.Enclave
	if cred.Token != "" {
		enclave = memguard.NewEnclave([]byte(cred.Token))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = enclave
	s.expiresAt = cred.ExpiresAt
	return nil
}

// Get returns the held credential, or ok=false when the store is empty.
func (s *Store) Get() (credstore.Credential, bool) {
	s.mu.RLock()
	enclave := s.token
	expiresAt := s.expiresAt
	s.mu.RUnlock()

	if enclave == nil {
		return credstore.Credential{}, false
	}

	buf, err := enclave.Open()
	if err != nil {
		return credstore.Credential{}, false
	}
	// string(...) copies out of the locked region before Destroy wipes it.
	token := string(buf.Bytes())
	buf.Destroy()

	return credstore.Credential{
		Token:     token,
		ExpiresAt: expiresAt,
	}, true
}

// Clear removes the held credential.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.expiresAt = time.Time{}
	return nil
}
