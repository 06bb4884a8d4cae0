package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill-server/internal/domain"
	domainerrors "github.com/quillnotes/quill-server/internal/errors"
	"github.com/quillnotes/quill-server/internal/search"
	"github.com/quillnotes/quill-server/internal/store"
)

type searchFixture struct {
	store  *store.BadgerStore
	users  *UserService
	notes  *NoteService
	search *SearchService
	index  *search.NoteIndex
}

func setupSearchTest(t *testing.T) *searchFixture {
	t.Helper()
	st := newTestStore(t)
	idx, err := search.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	searchSvc := NewSearchService(idx, st, nil)
	notes := NewNoteService(st, nil, nil)
	notes.SetIndexer(searchSvc)

	return &searchFixture{
		store:  st,
		users:  NewUserService(st, nil),
		notes:  notes,
		search: searchSvc,
		index:  idx,
	}
}

func (f *searchFixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.FindOrCreate(context.Background(), domain.Profile{Email: email, FirstName: "Test"})
	require.NoError(t, err)
	return u
}

func (f *searchFixture) note(t *testing.T, owner, title, content string) *domain.Note {
	t.Helper()
	n, err := f.notes.Create(context.Background(), CreateNoteInput{Title: title, Content: content}, owner)
	require.NoError(t, err)
	return n
}

func titles(notes []*domain.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func TestSearchService_OwnerScoped(t *testing.T) {
	f := setupSearchTest(t)
	ctx := context.Background()
	ann := f.user(t, "ann@example.com")
	ben := f.user(t, "ben@example.com")

	f.note(t, ann.ID, "Kayak trip", "Paddling along the coast")
	f.note(t, ann.ID, "Budget", "Rent and groceries")
	f.note(t, ben.ID, "Kayak repair", "Patch the hull")

	res, err := f.search.Search(ctx, ann.ID, "kayak", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kayak trip"}, titles(res.Data))
	assert.Equal(t, 1, res.Total)

	res, err = f.search.Search(ctx, ben.ID, "kayak", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kayak repair"}, titles(res.Data))
}

func TestSearchService_FollowsMutations(t *testing.T) {
	f := setupSearchTest(t)
	ctx := context.Background()
	ann := f.user(t, "ann@example.com")

	n := f.note(t, ann.ID, "Garden", "Plant tomatoes")

	_, err := f.notes.Update(ctx, n.ID, UpdateNoteInput{Content: ptr("Plant peppers")}, ann.ID)
	require.NoError(t, err)

	res, err := f.search.Search(ctx, ann.ID, "tomatoes", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Data)

	res, err = f.search.Search(ctx, ann.ID, "peppers", 1, 10)
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)

	_, err = f.notes.Remove(ctx, n.ID, ann.ID)
	require.NoError(t, err)

	count, err := f.search.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearchService_SkipsStaleHits(t *testing.T) {
	f := setupSearchTest(t)
	ctx := context.Background()
	ann := f.user(t, "ann@example.com")

	n := f.note(t, ann.ID, "Ghost", "haunted content")
	// Delete behind the service's back so the index still has the document.
	require.NoError(t, f.store.DeleteNote(ctx, n.ID))

	res, err := f.search.Search(ctx, ann.ID, "haunted", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestSearchService_InvalidPage(t *testing.T) {
	f := setupSearchTest(t)

	_, err := f.search.Search(context.Background(), "aaaaaaaaaaaaaaaaaaaaaaaa", "x", -1, 10)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestSearchService_ReindexAll(t *testing.T) {
	f := setupSearchTest(t)
	ctx := context.Background()
	ann := f.user(t, "ann@example.com")
	ben := f.user(t, "ben@example.com")

	// Write straight to the store so only a reindex can find these.
	for i, owner := range []string{ann.ID, ann.ID, ben.ID} {
		n := &domain.Note{
			ID:      []string{"aaaaaaaaaaaaaaaaaaaaaaa1", "aaaaaaaaaaaaaaaaaaaaaaa2", "aaaaaaaaaaaaaaaaaaaaaaa3"}[i],
			Title:   "Archived",
			Content: "imported from backup",
			Tags:    []string{},
			OwnerID: owner,
		}
		n.InitTimestamps()
		require.NoError(t, f.store.CreateNote(ctx, n))
	}

	count, err := f.search.DocumentCount()
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, f.search.ReindexAll(ctx))

	count, err = f.search.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	res, err := f.search.Search(ctx, ann.ID, "backup", 1, 10)
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
}

func TestSearchService_ReindexAll_Cancelled(t *testing.T) {
	f := setupSearchTest(t)
	ann := f.user(t, "ann@example.com")
	f.note(t, ann.ID, "Kept", "indexed on create")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.search.ReindexAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
