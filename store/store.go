// Package store keeps an optimistically-updated local mirror of the
// user's task collection. Mutations apply to the snapshot immediately for
// display, then reconcile against the server's response: confirmed on
// success, rolled back on failure. The snapshot is the client's current
// belief about server state, ordered newest first like the server
// reports it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jmcleod/deskhand/client"
)

// ErrNotFound is reported when an operation targets a task id that is no
// longer in the snapshot, e.g. removed by a concurrent delete. It is a
// no-op condition, never fatal.
var ErrNotFound = errors.New("task not in snapshot")

// API is the slice of the transport the store needs. *client.Client
// satisfies this.
type API interface {
	ListTasks(ctx context.Context) ([]client.Task, error)
	CreateTask(ctx context.Context, fields client.TaskFields) (*client.Task, error)
	UpdateTask(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Entry is one snapshot element. Pending entries have been created
// locally but not yet confirmed by the server and carry no server id.
type Entry struct {
	// LocalID identifies the entry across the pending→confirmed
	// replacement, so views can keep stable element identity.
	LocalID string
	Task    client.Task
	Pending bool
}

// Store is the optimistic task mirror.
type Store struct {
	mu       sync.Mutex
	api      API
	snapshot []Entry
	updates  map[string]*sync.Mutex // serializes updates per task id
	logger   *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty Store over the given API.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:     api,
		updates: make(map[string]*sync.Mutex),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Get returns the snapshot entry carrying the given server id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexByIDLocked(id); i >= 0 {
		return s.snapshot[i], true
	}
	return Entry{}, false
}

// Len returns the number of snapshot entries, pending included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshot)
}

// Refresh fetches the full collection and replaces the snapshot
// wholesale. Concurrent refreshes are not merged: whichever response
// completes last becomes the snapshot, regardless of issue order.
// Callers that need strict ordering must serialize their refreshes.
func (s *Store) Refresh(ctx context.Context) error {
	tasks, err := s.api.ListTasks(ctx)
	if err != nil {
		return err
	}

	entries := make([]Entry, len(tasks))
	for i, task := range tasks {
		entries[i] = Entry{LocalID: uuid.NewString(), Task: task}
	}

	s.mu.Lock()
	s.snapshot = entries
	s.mu.Unlock()
	return nil
}

// Create inserts a pending entry at the head of the snapshot for
// immediate display, then issues the create call. On success the pending
// entry is replaced in place with the server's representation; on
// failure it is removed, leaving the snapshot identical to its
// pre-create state.
func (s *Store) Create(ctx context.Context, fields client.TaskFields) (Entry, error) {
	var task client.Task
	fields.Apply(&task)

	pending := Entry{LocalID: uuid.NewString(), Task: task, Pending: true}

	s.mu.Lock()
	s.snapshot = append([]Entry{pending}, s.snapshot...)
	s.mu.Unlock()

	created, err := s.api.CreateTask(ctx, fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexByLocalIDLocked(pending.LocalID)
	if err != nil {
		if i >= 0 {
			s.snapshot = append(s.snapshot[:i], s.snapshot[i+1:]...)
		}
		return Entry{}, fmt.Errorf("creating task: %w", err)
	}
	if i < 0 {
		// A refresh replaced the snapshot while the create was in
		// flight; the confirmed task is already in (or will arrive with)
		// the server's listing.
		s.logger.Debug("created task reconciled away by refresh", "id", created.ID)
		return Entry{LocalID: pending.LocalID, Task: *created}, nil
	}
	s.snapshot[i].Task = *created
	s.snapshot[i].Pending = false
	return s.snapshot[i], nil
}

// Update applies the field change to the matching entry, then issues the
// update call. On success the entry is reconciled with the server's
// returned representation; on failure it reverts to its pre-update
// value. Updates are serialized per task id: a second update for the
// same id waits for the first to resolve before applying, so a stale
// response can never clobber a newer optimistic edit.
func (s *Store) Update(ctx context.Context, id string, fields client.TaskFields) (Entry, error) {
	lock := s.updateLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	i := s.indexByIDLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return Entry{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	prev := s.snapshot[i].Task
	fields.Apply(&s.snapshot[i].Task)
	s.mu.Unlock()

	updated, err := s.api.UpdateTask(ctx, id, fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	i = s.indexByIDLocked(id)
	if err != nil {
		if i >= 0 {
			s.snapshot[i].Task = prev
		}
		return Entry{}, fmt.Errorf("updating task %s: %w", id, err)
	}
	if i < 0 {
		return Entry{Task: *updated}, nil
	}
	// The server is authoritative for every field the caller did not
	// intend to change.
	s.snapshot[i].Task = *updated
	return s.snapshot[i], nil
}

// Delete removes the entry from the snapshot, then issues the delete
// call. On failure the entry is reinserted at its original position.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexByIDLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	removed := s.snapshot[i]
	s.snapshot = append(s.snapshot[:i], s.snapshot[i+1:]...)
	s.mu.Unlock()

	if err := s.api.DeleteTask(ctx, id); err != nil {
		s.mu.Lock()
		s.reinsertLocked(removed, i)
		s.mu.Unlock()
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

func (s *Store) reinsertLocked(e Entry, at int) {
	if at > len(s.snapshot) {
		at = len(s.snapshot)
	}
	s.snapshot = append(s.snapshot[:at], append([]Entry{e}, s.snapshot[at:]...)...)
}

func (s *Store) indexByIDLocked(id string) int {
	for i, e := range s.snapshot {
		if !e.Pending && e.Task.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexByLocalIDLocked(localID string) int {
	for i, e := range s.snapshot {
		if e.LocalID == localID {
			return i
		}
	}
	return -1
}

func (s *Store) updateLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.updates[id]
	if !ok {
		lock = &sync.Mutex{}
		s.updates[id] = lock
	}
	return lock
}
