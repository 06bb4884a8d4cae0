package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/store"
	"github.com/quillnotes/quill-server/internal/store/storetest"
)

func openTestSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "quill.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestSQLite(t)
	})
}

func TestPostgres_Conformance(t *testing.T) {
	dsn := os.Getenv("QUILL_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("QUILL_TEST_POSTGRES_URL not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := OpenPostgres(context.Background(), dsn, nil)
		require.NoError(t, err)
		_, err = s.db.Exec(`TRUNCATE note_tags, notes, users`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLite_SchemaVersion(t *testing.T) {
	s := openTestSQLite(t)

	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestSQLite_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	u := storetest.NewUser("grace@example.com", 0)
	require.NoError(t, s.CreateUser(ctx, u))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
}

func TestSQLite_DeleteNoteRemovesTags(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	u := storetest.NewUser("ada@example.com", 0)
	require.NoError(t, s.CreateUser(ctx, u))
	n := storetest.NewNote(u.ID, "Tagged", 0, "a", "b")
	require.NoError(t, s.CreateNote(ctx, n))
	require.NoError(t, s.DeleteNote(ctx, n.ID))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM note_tags WHERE note_id = ?`, n.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestSQLite_TagOrderPreserved(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	u := storetest.NewUser("ada@example.com", 0)
	require.NoError(t, s.CreateUser(ctx, u))
	n := storetest.NewNote(u.ID, "Ordered", 0, "zeta", "alpha", "mid")
	require.NoError(t, s.CreateNote(ctx, n))

	page, err := s.ListNotes(ctx, domain.NoteFilter{OwnerID: u.ID, Tags: []string{"alpha"}}, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, page.Data[0].Tags)
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"sequential", "WHERE a = ? AND b = ?", "WHERE a = $1 AND b = $2"},
		{"quoted literal", "WHERE a = '?' AND b = ?", "WHERE a = '?' AND b = $1"},
		{"in list", "IN (?, ?, ?)", "IN ($1, $2, $3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rebind(tt.query))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestIsUniqueViolation(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	u := storetest.NewUser("dup@example.com", 0)
	require.NoError(t, s.CreateUser(ctx, u))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, email_lower, provider, role, version, created_at, updated_at)
		 VALUES ('aaaaaaaaaaaaaaaaaaaaaaaa', 'x', 'dup@example.com', 'google', 'user', 0, 0, 0)`)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}
