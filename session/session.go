// Package session tracks the authentication lifecycle of the client:
// anonymous, authenticating, authenticated, expired. The manager owns
// every transition, keeps the credential store consistent with the
// current state, and notifies observers so navigation guards and views
// can re-evaluate.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmcleod/deskhand/client"
	"github.com/jmcleod/deskhand/credstore"
)

// Exchanger performs the credential exchange against the backend.
// *client.Client satisfies this.
type Exchanger interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error)
	Logout(ctx context.Context) error
}

// TransitionListener observes state changes. Listeners are invoked
// synchronously during the transition and must not call back into the
// Manager.
type TransitionListener func(from, to State)

// Manager is the session state machine.
type Manager struct {
	mu        sync.Mutex
	state     State
	identity  client.User
	creds     credstore.Store
	exchanger Exchanger
	listeners []TransitionListener
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager in the anonymous state. The credential store is
// the same one the API client reads before dispatch, which is what makes
// logout and expiry atomic with respect to outbound requests.
func New(creds credstore.Store, exchanger Exchanger, opts ...Option) *Manager {
	m := &Manager{
		state:     StateAnonymous,
		creds:     creds,
		exchanger: exchanger,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the authenticated user. ok is false unless the
// session is authenticated.
func (m *Manager) Identity() (client.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity, m.state == StateAuthenticated
}

// OnTransition registers a listener invoked on every state change.
func (m *Manager) OnTransition(fn TransitionListener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Login performs the credential exchange. On success the returned token
// is stored and the session becomes authenticated. On failure the
// session returns to anonymous, the store stays empty, and the exchange
// error is surfaced without retry. A second Login while one is in
// flight fails with ErrLoginInFlight rather than queueing.
func (m *Manager) Login(ctx context.Context, email, password string) (client.User, error) {
	m.mu.Lock()
	if m.state == StateAuthenticating {
		m.mu.Unlock()
		return client.User{}, ErrLoginInFlight
	}
	if err := m.transitionLocked(StateAuthenticating); err != nil {
		m.mu.Unlock()
		return client.User{}, err
	}
	m.mu.Unlock()

	resp, err := m.exchanger.Login(ctx, client.LoginRequest{Email: email, Password: password})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.identity = client.User{}
		if terr := m.transitionLocked(StateAnonymous); terr != nil {
			m.logger.Error("failed to roll back login state", "error", terr)
		}
		return client.User{}, fmt.Errorf("credential exchange: %w", err)
	}

	cred := credstore.Credential{Token: resp.Token, ExpiresAt: resp.ExpiresAt}
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = expiryHint(resp.Token)
	}
	if err := m.creds.Set(cred); err != nil {
		m.identity = client.User{}
		if terr := m.transitionLocked(StateAnonymous); terr != nil {
			m.logger.Error("failed to roll back login state", "error", terr)
		}
		return client.User{}, fmt.Errorf("storing credential: %w", err)
	}

	m.identity = resp.User
	if err := m.transitionLocked(StateAuthenticated); err != nil {
		return client.User{}, err
	}
	return resp.User, nil
}

// Logout invalidates the credential server-side (best effort), then
// clears the store and returns the session to anonymous. The store is
// cleared before the transition completes, so no request dispatched
// after logout is observed can carry the old credential. Logout of a
// session that is not authenticated is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	// Server-side invalidation happens while the credential is still
	// attached. A failure here never blocks the local logout.
	if err := m.exchanger.Logout(ctx); err != nil {
		m.logger.Debug("server-side logout failed", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		// A 401 during the logout call already expired the session.
		return nil
	}
	if err := m.creds.Clear(); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	m.identity = client.User{}
	return m.transitionLocked(StateAnonymous)
}

// HandleAuthFailure drives the session to expired in response to a
// credential rejection from the API client, clearing the store as part
// of the transition. Idempotent: when several in-flight requests fail
// with 401 concurrently, the session expires exactly once, and a
// rejection outside the authenticated state changes nothing.
func (m *Manager) HandleAuthFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return
	}
	if err := m.creds.Clear(); err != nil {
		m.logger.Warn("failed to clear rejected credential", "error", err)
	}
	m.identity = client.User{}
	if err := m.transitionLocked(StateExpired); err != nil {
		m.logger.Error("failed to expire session", "error", err)
	}
}

func (m *Manager) transitionLocked(to State) error {
	from := m.state
	if from == to {
		return nil
	}
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state = to
	for _, fn := range m.listeners {
		fn(from, to)
	}
	return nil
}
