package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
)

// memPersister collects saved turns for inspection.
type memPersister struct {
	mu    sync.Mutex
	saved []PersistRecord
	err   error
}

func (m *memPersister) Save(_ context.Context, sessionID string, turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, PersistRecord{SessionID: sessionID, Turn: turn})
	return nil
}

func (m *memPersister) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func newTestStore(t *testing.T, persister Persister) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), StoreConfig{}, persister, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(time.Second) })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Record("s1", Turn{Role: RoleUser, Content: "asian patients"}))
	require.NoError(t, store.Record("s1", Turn{Role: RoleAssistant, Content: "Found 42 cases"}))

	session, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	require.Len(t, session.Turns, 2)
	assert.Equal(t, RoleUser, session.Turns[0].Role)
	assert.Equal(t, RoleAssistant, session.Turns[1].Role)
	assert.False(t, session.FirstMessage.IsZero())
	assert.False(t, session.LastMessage.Before(session.FirstMessage))
}

func TestGetUnknownSession(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSessionNotFound)
	assert.True(t, errors.IsInvalid(err))
}

func TestRecordRejectsEmptySessionID(t *testing.T) {
	store := newTestStore(t, nil)
	assert.Error(t, store.Record("", Turn{Role: RoleUser, Content: "hi"}))
}

func TestTurnsArePersistedAsync(t *testing.T) {
	persister := &memPersister{}
	store := newTestStore(t, persister)

	require.NoError(t, store.Record("s1", Turn{Role: RoleUser, Content: "one"}))
	require.NoError(t, store.Record("s1", Turn{Role: RoleAssistant, Content: "two"}))

	assert.Eventually(t, func() bool {
		return persister.count() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPersisterFailureDoesNotAffectReads(t *testing.T) {
	persister := &memPersister{err: context.DeadlineExceeded}
	store := newTestStore(t, persister)

	require.NoError(t, store.Record("s1", Turn{Role: RoleUser, Content: "hello"}))

	session, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, session.Turns, 1)
}

func TestSessionsOrderedByRecency(t *testing.T) {
	store := newTestStore(t, nil)

	base := time.Now()
	require.NoError(t, store.Record("old", Turn{Role: RoleUser, Content: "first", Timestamp: base.Add(-time.Hour)}))
	require.NoError(t, store.Record("new", Turn{Role: RoleUser, Content: "second", Timestamp: base}))

	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "old", sessions[1].ID)
}

func TestSearch(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Record("s1", Turn{Role: RoleUser, Content: "patients with Neuroblastoma"}))
	require.NoError(t, store.Record("s2", Turn{Role: RoleUser, Content: "female patients"}))

	hits := store.Search("neuroblastoma", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].ID)

	assert.Empty(t, store.Search("ewing", 10))
}

func TestCloseDrainsPool(t *testing.T) {
	persister := &memPersister{}
	store, err := NewStore(context.Background(), StoreConfig{}, persister, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Record("s1", Turn{Role: RoleUser, Content: "msg"}))
	}
	require.NoError(t, store.Close(2*time.Second))
	assert.Equal(t, 10, persister.count())
}
