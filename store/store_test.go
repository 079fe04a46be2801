package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/deskhand/client"
)

type fakeAPI struct {
	mu       sync.Mutex
	listFn   func(ctx context.Context) ([]client.Task, error)
	createFn func(ctx context.Context, fields client.TaskFields) (*client.Task, error)
	updateFn func(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeAPI) ListTasks(ctx context.Context) ([]client.Task, error) {
	return f.listFn(ctx)
}

func (f *fakeAPI) CreateTask(ctx context.Context, fields client.TaskFields) (*client.Task, error) {
	return f.createFn(ctx, fields)
}

func (f *fakeAPI) UpdateTask(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error) {
	return f.updateFn(ctx, id, fields)
}

func (f *fakeAPI) DeleteTask(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func tasksOf(entries []Entry) []client.Task {
	out := make([]client.Task, len(entries))
	for i, e := range entries {
		out[i] = e.Task
	}
	return out
}

func seeded(t *testing.T, api *fakeAPI, tasks ...client.Task) *Store {
	t.Helper()
	api.listFn = func(ctx context.Context) ([]client.Task, error) {
		return tasks, nil
	}
	s := New(api)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestStore_RefreshReplacesSnapshot(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api,
		client.Task{ID: "2", Title: "newer"},
		client.Task{ID: "1", Title: "older"},
	)

	require.Equal(t, 2, s.Len())
	snap := s.Snapshot()
	assert.Equal(t, "2", snap[0].Task.ID)
	assert.Equal(t, "1", snap[1].Task.ID)

	api.listFn = func(ctx context.Context) ([]client.Task, error) {
		return []client.Task{{ID: "3", Title: "only"}}, nil
	}
	require.NoError(t, s.Refresh(context.Background()))
	snap = s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "3", snap[0].Task.ID)
}

func TestStore_RefreshLastCompletedWins(t *testing.T) {
	api := &fakeAPI{}
	firstIssued := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	api.listFn = func(ctx context.Context) ([]client.Task, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstIssued)
			<-release // first-issued refresh completes last
			return []client.Task{{ID: "first"}}, nil
		}
		return []client.Task{{ID: "second"}}, nil
	}

	s := New(api)
	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	<-firstIssued

	require.NoError(t, s.Refresh(context.Background()))
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "second", snap[0].Task.ID)

	close(release)
	require.NoError(t, <-done)

	// The most recently completed response is the snapshot, even though
	// it was issued first.
	snap = s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "first", snap[0].Task.ID)
}

func TestStore_CreateOptimisticallyInsertsPendingAtHead(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, client.Task{ID: "1", Title: "existing"})

	release := make(chan struct{})
	api.createFn = func(ctx context.Context, fields client.TaskFields) (*client.Task, error) {
		<-release
		return &client.Task{ID: "7", Title: *fields.Title, CreatedAt: time.Now()}, nil
	}

	done := make(chan Entry, 1)
	go func() {
		e, err := s.Create(context.Background(), client.TaskFields{Title: strptr("Buy milk")})
		require.NoError(t, err)
		done <- e
	}()

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 2 && snap[0].Pending
	}, time.Second, time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, "Buy milk", snap[0].Task.Title)
	assert.Empty(t, snap[0].Task.ID, "pending entry has no server id")

	close(release)
	created := <-done
	assert.Equal(t, "7", created.Task.ID)
	assert.False(t, created.Pending)

	snap = s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "7", snap[0].Task.ID, "pending entry replaced in place")
	assert.Equal(t, created.LocalID, snap[0].LocalID, "element identity is stable across confirmation")
}

func TestStore_CreateFailureRestoresSnapshot(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api,
		client.Task{ID: "2", Title: "b"},
		client.Task{ID: "1", Title: "a"},
	)
	before := tasksOf(s.Snapshot())

	api.createFn = func(ctx context.Context, fields client.TaskFields) (*client.Task, error) {
		return nil, errors.New("boom")
	}

	_, err := s.Create(context.Background(), client.TaskFields{Title: strptr("doomed")})
	require.Error(t, err)

	assert.Equal(t, before, tasksOf(s.Snapshot()),
		"failed create must leave the snapshot identical to its pre-create state")
}

func TestStore_UpdateReconcilesWithServer(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, client.Task{ID: "1", Title: "a", Notes: "server notes"})

	api.updateFn = func(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error) {
		// Server is authoritative for fields the client did not touch.
		return &client.Task{ID: "1", Title: *fields.Title, Notes: "rewritten by server", Completed: false}, nil
	}

	entry, err := s.Update(context.Background(), "1", client.TaskFields{Title: strptr("a2")})
	require.NoError(t, err)
	assert.Equal(t, "a2", entry.Task.Title)
	assert.Equal(t, "rewritten by server", entry.Task.Notes)

	snap := s.Snapshot()
	assert.Equal(t, "rewritten by server", snap[0].Task.Notes)
}

func TestStore_UpdateFailureReverts(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, client.Task{ID: "1", Title: "original"})

	applied := make(chan struct{})
	release := make(chan struct{})
	api.updateFn = func(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error) {
		close(applied)
		<-release
		return nil, errors.New("boom")
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), "1", client.TaskFields{Title: strptr("changed")})
		done <- err
	}()

	<-applied
	snap := s.Snapshot()
	assert.Equal(t, "changed", snap[0].Task.Title, "optimistic edit is visible while in flight")

	close(release)
	require.Error(t, <-done)

	snap = s.Snapshot()
	assert.Equal(t, "original", snap[0].Task.Title, "failed update reverts to the pre-update value")
}

func TestStore_UpdateUnknownIDIsNotFound(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api)

	_, err := s.Update(context.Background(), "missing", client.TaskFields{Title: strptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdatesSerializePerID(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, client.Task{ID: "1", Title: "v0"})

	firstInFlight := make(chan struct{})
	releaseFirst := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	api.updateFn = func(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstInFlight)
			<-releaseFirst // first response arrives after the second was issued
		}
		return &client.Task{ID: id, Title: *fields.Title}, nil
	}

	first := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), "1", client.TaskFields{Title: strptr("f1")})
		first <- err
	}()
	<-firstInFlight

	second := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), "1", client.TaskFields{Title: strptr("f2")})
		second <- err
	}()

	// The second update must wait for the first to resolve before
	// applying its optimistic edit.
	assert.Never(t, func() bool {
		return s.Snapshot()[0].Task.Title == "f2"
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(releaseFirst)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	snap := s.Snapshot()
	assert.Equal(t, "f2", snap[0].Task.Title,
		"final value reflects the second update's resolution, not a stale response")
}

func TestStore_UpdatesOnDifferentIDsDoNotBlock(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api,
		client.Task{ID: "2", Title: "b"},
		client.Task{ID: "1", Title: "a"},
	)

	blocked := make(chan struct{})
	release := make(chan struct{})
	api.updateFn = func(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error) {
		if id == "1" {
			close(blocked)
			<-release
		}
		return &client.Task{ID: id, Title: *fields.Title}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), "1", client.TaskFields{Title: strptr("a2")})
		done <- err
	}()
	<-blocked

	_, err := s.Update(context.Background(), "2", client.TaskFields{Title: strptr("b2")})
	require.NoError(t, err, "an in-flight update on one id must not block another id")

	close(release)
	require.NoError(t, <-done)
}

func TestStore_DeleteRemovesAndReinsertsOnFailure(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api,
		client.Task{ID: "7", Title: "Buy milk"},
		client.Task{ID: "1", Title: "older"},
	)

	api.deleteFn = func(ctx context.Context, id string) error {
		return errors.New("connection refused")
	}

	err := s.Delete(context.Background(), "7")
	require.Error(t, err)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "7", snap[0].Task.ID, "failed delete reinserts at the original position")
}

func TestStore_DeleteSuccess(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, client.Task{ID: "1", Title: "a"})

	api.deleteFn = func(ctx context.Context, id string) error { return nil }

	require.NoError(t, s.Delete(context.Background(), "1"))
	assert.Zero(t, s.Len())
}

func TestStore_DeleteUnknownIDIsNotFound(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api)

	err := s.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Mirrors the product flow: create confirms with a server id, then a
// failed delete restores the entry where it was.
func TestStore_CreateThenFailedDeleteScenario(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api)

	api.createFn = func(ctx context.Context, fields client.TaskFields) (*client.Task, error) {
		return &client.Task{ID: "7", Title: *fields.Title, Completed: false}, nil
	}
	entry, err := s.Create(context.Background(), client.TaskFields{Title: strptr("Buy milk")})
	require.NoError(t, err)
	require.Equal(t, "7", entry.Task.ID)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "7", snap[0].Task.ID)

	api.deleteFn = func(ctx context.Context, id string) error {
		return errors.New("network down")
	}
	err = s.Delete(context.Background(), "7")
	require.Error(t, err)

	snap = s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "7", snap[0].Task.ID)
	assert.Equal(t, "Buy milk", snap[0].Task.Title)
}

func TestStore_GetByID(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, client.Task{ID: "1", Title: "a"})

	e, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "a", e.Task.Title)

	_, ok = s.Get("2")
	assert.False(t, ok)
}

func TestStore_UpdateCompletionFlag(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, client.Task{ID: "1", Title: "a"})

	api.updateFn = func(ctx context.Context, id string, fields client.TaskFields) (*client.Task, error) {
		return &client.Task{ID: id, Title: "a", Completed: *fields.Completed}, nil
	}

	entry, err := s.Update(context.Background(), "1", client.TaskFields{Completed: boolptr(true)})
	require.NoError(t, err)
	assert.True(t, entry.Task.Completed)
}
