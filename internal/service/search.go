package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/search"
	"github.com/quillnotes/quill-server/internal/store"
)

// reindexPageSize bounds each store read during ReindexAll.
const reindexPageSize = 100

// SearchService bridges the note index with the store. It implements
// NoteIndexer so NoteService keeps the index current.
type SearchService struct {
	index  *search.NoteIndex
	store  store.Store
	logger *slog.Logger
}

var _ NoteIndexer = (*SearchService)(nil)

// NewSearchService creates a new search service.
func NewSearchService(index *search.NoteIndex, store store.Store, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// IndexNote indexes or replaces a note.
func (s *SearchService) IndexNote(_ context.Context, note *domain.Note) error {
	if err := s.index.IndexDocument(search.NoteToDocument(note)); err != nil {
		return fmt.Errorf("index note: %w", err)
	}
	s.logger.Debug("indexed note", "id", note.ID)
	return nil
}

// RemoveNote removes a note from the index.
func (s *SearchService) RemoveNote(_ context.Context, noteID string) error {
	return s.index.DeleteDocument(noteID)
}

// Search runs an owner-scoped full-text query and re-reads the hits from the
// store. Hits whose note no longer exists are skipped.
func (s *SearchService) Search(ctx context.Context, ownerID, query string, page, limit int) (*store.PaginatedResult[*domain.Note], error) {
	params, err := pageParams(page, limit)
	if err != nil {
		return nil, err
	}

	res, err := s.index.Search(ctx, search.SearchParams{
		OwnerID: ownerID,
		Query:   query,
		Limit:   params.Limit,
		Offset:  params.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	notes := make([]*domain.Note, 0, len(res.Hits))
	for _, noteID := range res.IDs() {
		note, err := s.store.GetOwnedNote(ctx, noteID, ownerID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("search hit no longer in store", "id", noteID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load search hit: %w", err)
		}
		notes = append(notes, note)
	}

	return store.NewPaginatedResult(notes, int(res.Total), params), nil
}

// DocumentCount returns the number of indexed notes.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the index from every user's notes.
// This is a heavy operation - use sparingly.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	indexed := 0
	for userPage := 1; ; userPage++ {
		users, err := s.store.ListUsers(ctx, store.PaginationParams{Page: userPage, Limit: reindexPageSize})
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		for _, u := range users.Data {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := s.reindexOwner(ctx, u.ID)
			if err != nil {
				return err
			}
			indexed += n
		}
		if userPage >= users.TotalPages {
			break
		}
	}

	s.logger.Info("full reindex complete", "notes", indexed)
	return nil
}

func (s *SearchService) reindexOwner(ctx context.Context, ownerID string) (int, error) {
	indexed := 0
	for page := 1; ; page++ {
		notes, err := s.store.ListNotes(ctx, domain.NoteFilter{OwnerID: ownerID},
			store.PaginationParams{Page: page, Limit: reindexPageSize})
		if err != nil {
			return indexed, fmt.Errorf("list notes: %w", err)
		}

		docs := make([]*search.NoteDocument, 0, len(notes.Data))
		for _, n := range notes.Data {
			docs = append(docs, search.NoteToDocument(n))
		}
		if err := s.index.IndexDocuments(docs); err != nil {
			return indexed, fmt.Errorf("index notes: %w", err)
		}
		indexed += len(docs)

		if page >= notes.TotalPages {
			return indexed, nil
		}
	}
}
