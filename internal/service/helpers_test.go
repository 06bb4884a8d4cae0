package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/store"
)

// newTestStore opens an in-memory Badger store.
func newTestStore(t *testing.T) *store.BadgerStore {
	t.Helper()
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// recordingMetrics counts observations.
type recordingMetrics struct {
	mu       sync.Mutex
	ops      map[string]int
	users    int
	logins   int
	failures int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{ops: make(map[string]int)}
}

func (m *recordingMetrics) NoteOperation(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
}

func (m *recordingMetrics) UserCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users++
}

func (m *recordingMetrics) Login(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.logins++
	} else {
		m.failures++
	}
}

// recordingIndexer remembers the last indexed version of every note.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed map[string]*domain.Note
	removed []string
	err     error
}

func newRecordingIndexer() *recordingIndexer {
	return &recordingIndexer{indexed: make(map[string]*domain.Note)}
}

func (r *recordingIndexer) IndexNote(_ context.Context, n *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *n
	r.indexed[n.ID] = &cp
	return nil
}

func (r *recordingIndexer) RemoveNote(_ context.Context, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.indexed, noteID)
	r.removed = append(r.removed, noteID)
	return nil
}

func ptr[T any](v T) *T { return &v }
