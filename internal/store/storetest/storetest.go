// Package storetest is a conformance suite every store backend must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/id"
	"github.com/quillnotes/quill-server/internal/store"
)

// Factory opens an empty store. It should register cleanup with t.
type Factory func(t *testing.T) store.Store

// base is a fixed instant so ordering assertions do not depend on the clock.
var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore) })
	t.Run("Notes", func(t *testing.T) { testNotes(t, newStore) })
	t.Run("NoteListing", func(t *testing.T) { testNoteListing(t, newStore) })
	t.Run("Lifecycle", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
		assert.NotEmpty(t, s.Driver())
	})
}

// NewUser builds a user created offset after the suite's base time.
func NewUser(email string, offset time.Duration) *domain.User {
	at := base.Add(offset)
	return &domain.User{
		ID:         id.New(),
		Email:      email,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Provider:   domain.ProviderGoogle,
		Role:       domain.RoleUser,
		Timestamps: domain.Timestamps{CreatedAt: at, UpdatedAt: at},
	}
}

// NewNote builds a note created offset after the suite's base time.
func NewNote(ownerID, title string, offset time.Duration, tags ...string) *domain.Note {
	at := base.Add(offset)
	if tags == nil {
		tags = []string{}
	}
	return &domain.Note{
		ID:         id.New(),
		Title:      title,
		Content:    "content of " + title,
		Tags:       tags,
		OwnerID:    ownerID,
		Timestamps: domain.Timestamps{CreatedAt: at, UpdatedAt: at},
	}
}

func testUsers(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		u := NewUser("ada@example.com", 0)
		u.Picture = "https://example.com/a.png"
		require.NoError(t, s.CreateUser(ctx, u))

		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, "Ada", got.FirstName)
		assert.Equal(t, "Lovelace", got.LastName)
		assert.Equal(t, "https://example.com/a.png", got.Picture)
		assert.Equal(t, domain.ProviderGoogle, got.Provider)
		assert.Equal(t, domain.RoleUser, got.Role)
		assert.Equal(t, 0, got.Version)
		assert.True(t, u.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", u.CreatedAt, got.CreatedAt)
		assert.True(t, u.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("missing user", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetUser(ctx, id.New())
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("email is unique and case-insensitive", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateUser(ctx, NewUser("Ada@Example.com", 0)))

		err := s.CreateUser(ctx, NewUser("ada@example.COM", time.Second))
		assert.ErrorIs(t, err, store.ErrAlreadyExists)

		got, err := s.GetUserByEmail(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada@Example.com", got.Email)
	})

	t.Run("update bumps version", func(t *testing.T) {
		s := newStore(t)
		u := NewUser("ada@example.com", 0)
		require.NoError(t, s.CreateUser(ctx, u))

		u.Role = domain.RoleAdmin
		u.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, s.UpdateUser(ctx, u))
		assert.Equal(t, 1, u.Version)

		require.NoError(t, s.UpdateUser(ctx, u))
		assert.Equal(t, 2, u.Version)

		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, got.Role)
		assert.Equal(t, 2, got.Version)
		assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("update missing user", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateUser(ctx, NewUser("ghost@example.com", 0))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		var ids []string
		for i := range 5 {
			u := NewUser(fmt.Sprintf("user%d@example.com", i), time.Duration(i)*time.Minute)
			require.NoError(t, s.CreateUser(ctx, u))
			ids = append(ids, u.ID)
		}

		page, err := s.ListUsers(ctx, store.PaginationParams{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.Limit)
		require.Len(t, page.Data, 2)
		assert.Equal(t, ids[4], page.Data[0].ID)
		assert.Equal(t, ids[3], page.Data[1].ID)

		last, err := s.ListUsers(ctx, store.PaginationParams{Page: 3, Limit: 2})
		require.NoError(t, err)
		require.Len(t, last.Data, 1)
		assert.Equal(t, ids[0], last.Data[0].ID)

		beyond, err := s.ListUsers(ctx, store.PaginationParams{Page: 9, Limit: 2})
		require.NoError(t, err)
		assert.NotNil(t, beyond.Data)
		assert.Empty(t, beyond.Data)
		assert.Equal(t, 5, beyond.Total)
	})

	t.Run("list with huge limit", func(t *testing.T) {
		s := newStore(t)
		for i := range 3 {
			require.NoError(t, s.CreateUser(ctx, NewUser(fmt.Sprintf("big%d@example.com", i), time.Duration(i)*time.Minute)))
		}

		page, err := s.ListUsers(ctx, store.PaginationParams{Page: 1, Limit: 1 << 50})
		require.NoError(t, err)
		assert.Len(t, page.Data, 3)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)
		page, err := s.ListUsers(ctx, store.PaginationParams{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.NotNil(t, page.Data)
		assert.Equal(t, 0, page.Total)
		assert.Equal(t, 0, page.TotalPages)
	})
}

func testNotes(t *testing.T, newStore Factory) {
	ctx := context.Background()
	owner := id.New()
	stranger := id.New()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		n := NewNote(owner, "Groceries", 0, "home", "todo")
		n.Category = "personal"
		require.NoError(t, s.CreateNote(ctx, n))

		got, err := s.GetNote(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "Groceries", got.Title)
		assert.Equal(t, "content of Groceries", got.Content)
		assert.Equal(t, []string{"home", "todo"}, got.Tags)
		assert.Equal(t, "personal", got.Category)
		assert.Equal(t, owner, got.OwnerID)
		assert.Equal(t, 0, got.Version)
		assert.True(t, n.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("empty tags round trip as empty slice", func(t *testing.T) {
		s := newStore(t)
		n := NewNote(owner, "Bare", 0)
		require.NoError(t, s.CreateNote(ctx, n))

		got, err := s.GetNote(ctx, n.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.Tags)
		assert.Empty(t, got.Tags)
		assert.Empty(t, got.Category)
	})

	t.Run("owned lookup hides other owners", func(t *testing.T) {
		s := newStore(t)
		n := NewNote(owner, "Private", 0)
		require.NoError(t, s.CreateNote(ctx, n))

		got, err := s.GetOwnedNote(ctx, n.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, n.ID, got.ID)

		_, err = s.GetOwnedNote(ctx, n.ID, stranger)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetOwnedNote(ctx, id.New(), owner)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update replaces fields and bumps version", func(t *testing.T) {
		s := newStore(t)
		n := NewNote(owner, "Draft", 0, "a")
		require.NoError(t, s.CreateNote(ctx, n))

		n.Title = "Final"
		n.Tags = []string{"b", "c"}
		n.Category = "work"
		n.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, s.UpdateNote(ctx, n))
		assert.Equal(t, 1, n.Version)

		got, err := s.GetNote(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final", got.Title)
		assert.Equal(t, []string{"b", "c"}, got.Tags)
		assert.Equal(t, "work", got.Category)
		assert.Equal(t, 1, got.Version)
		assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))

		// Clearing tags and category.
		n.Tags = []string{}
		n.Category = ""
		require.NoError(t, s.UpdateNote(ctx, n))
		got, err = s.GetNote(ctx, n.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
		assert.Empty(t, got.Category)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("update missing note", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateNote(ctx, NewNote(owner, "Ghost", 0))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		n := NewNote(owner, "Temp", 0, "x")
		require.NoError(t, s.CreateNote(ctx, n))

		require.NoError(t, s.DeleteNote(ctx, n.ID))
		_, err := s.GetNote(ctx, n.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.ErrorIs(t, s.DeleteNote(ctx, n.ID), store.ErrNotFound)

		page, err := s.ListNotes(ctx, domain.NoteFilter{OwnerID: owner}, store.PaginationParams{})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
	})
}

func testNoteListing(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)
	owner := id.New()
	other := id.New()

	// Oldest first; listing must reverse this.
	fixtures := []struct {
		title    string
		category string
		tags     []string
	}{
		{"n0", "work", []string{"go", "db"}},
		{"n1", "home", []string{"garden"}},
		{"n2", "work", []string{"go"}},
		{"n3", "", nil},
		{"n4", "work", []string{"rust", "db"}},
	}
	for i, f := range fixtures {
		n := NewNote(owner, f.title, time.Duration(i)*time.Minute, f.tags...)
		n.Category = f.category
		require.NoError(t, s.CreateNote(ctx, n))
	}
	require.NoError(t, s.CreateNote(ctx, NewNote(other, "foreign", 10*time.Minute, "go")))

	titles := func(page *store.PaginatedResult[*domain.Note]) []string {
		out := make([]string, 0, len(page.Data))
		for _, n := range page.Data {
			out = append(out, n.Title)
		}
		return out
	}
	list := func(t *testing.T, filter domain.NoteFilter, page, limit int) *store.PaginatedResult[*domain.Note] {
		t.Helper()
		res, err := s.ListNotes(ctx, filter, store.PaginationParams{Page: page, Limit: limit})
		require.NoError(t, err)
		return res
	}

	t.Run("owner scope and order", func(t *testing.T) {
		res := list(t, domain.NoteFilter{OwnerID: owner}, 1, 10)
		assert.Equal(t, []string{"n4", "n3", "n2", "n1", "n0"}, titles(res))
		assert.Equal(t, 5, res.Total)
		assert.Equal(t, 1, res.TotalPages)
	})

	t.Run("category", func(t *testing.T) {
		res := list(t, domain.NoteFilter{OwnerID: owner, Category: "work"}, 1, 10)
		assert.Equal(t, []string{"n4", "n2", "n0"}, titles(res))
		assert.Equal(t, 3, res.Total)
	})

	t.Run("any tag matches", func(t *testing.T) {
		res := list(t, domain.NoteFilter{OwnerID: owner, Tags: []string{"db", "garden"}}, 1, 10)
		assert.Equal(t, []string{"n4", "n1", "n0"}, titles(res))
	})

	t.Run("category and tags combined", func(t *testing.T) {
		res := list(t, domain.NoteFilter{OwnerID: owner, Category: "work", Tags: []string{"go"}}, 1, 10)
		assert.Equal(t, []string{"n2", "n0"}, titles(res))
	})

	t.Run("unknown tag", func(t *testing.T) {
		res := list(t, domain.NoteFilter{OwnerID: owner, Tags: []string{"haskell"}}, 1, 10)
		assert.NotNil(t, res.Data)
		assert.Empty(t, res.Data)
		assert.Equal(t, 0, res.Total)
		assert.Equal(t, 0, res.TotalPages)
	})

	t.Run("pagination", func(t *testing.T) {
		first := list(t, domain.NoteFilter{OwnerID: owner}, 1, 2)
		assert.Equal(t, []string{"n4", "n3"}, titles(first))
		assert.Equal(t, 5, first.Total)
		assert.Equal(t, 3, first.TotalPages)

		third := list(t, domain.NoteFilter{OwnerID: owner}, 3, 2)
		assert.Equal(t, []string{"n0"}, titles(third))

		beyond := list(t, domain.NoteFilter{OwnerID: owner}, 4, 2)
		assert.Empty(t, beyond.Data)
		assert.Equal(t, 5, beyond.Total)
	})

	t.Run("limit far beyond the result set", func(t *testing.T) {
		res := list(t, domain.NoteFilter{OwnerID: owner}, 1, 1<<50)
		assert.Equal(t, []string{"n4", "n3", "n2", "n1", "n0"}, titles(res))
		assert.Equal(t, 1<<50, res.Limit)
		assert.Equal(t, 1, res.TotalPages)
	})

	t.Run("ties break on id descending", func(t *testing.T) {
		s := newStore(t)
		a := NewNote(owner, "a", 0)
		b := NewNote(owner, "b", 0)
		require.NoError(t, s.CreateNote(ctx, a))
		require.NoError(t, s.CreateNote(ctx, b))

		res, err := s.ListNotes(ctx, domain.NoteFilter{OwnerID: owner}, store.PaginationParams{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, res.Data, 2)
		want := []string{a.ID, b.ID}
		if b.ID > a.ID {
			want = []string{b.ID, a.ID}
		}
		assert.Equal(t, want, []string{res.Data[0].ID, res.Data[1].ID})
	})
}
