package store

import (
	"context"

	"github.com/quillnotes/quill-server/internal/domain"
)

// CreateNote implements NoteStore.
func (s *BadgerStore) CreateNote(ctx context.Context, note *domain.Note) error {
	return s.notes.Create(ctx, note.ID, note)
}

// GetNote implements NoteStore.
func (s *BadgerStore) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	return s.notes.Get(ctx, id)
}

// GetOwnedNote implements NoteStore.
func (s *BadgerStore) GetOwnedNote(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.IsOwnedBy(ownerID) {
		return nil, ErrNotFound
	}
	return note, nil
}

// UpdateNote implements NoteStore.
func (s *BadgerStore) UpdateNote(ctx context.Context, note *domain.Note) error {
	stored, err := s.notes.Modify(ctx, note.ID, func(current *domain.Note) error {
		version := current.Version
		*current = *note
		current.Version = version + 1
		return nil
	})
	if err != nil {
		return err
	}
	note.Version = stored.Version
	return nil
}

// DeleteNote implements NoteStore.
func (s *BadgerStore) DeleteNote(ctx context.Context, id string) error {
	return s.notes.Delete(ctx, id)
}

// ListNotes implements NoteStore. The owner index narrows the candidates;
// category and tags are filtered in memory.
func (s *BadgerStore) ListNotes(ctx context.Context, filter domain.NoteFilter, params PaginationParams) (*PaginatedResult[*domain.Note], error) {
	ids, err := s.notes.Scan(ctx, "owner", filter.OwnerID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.notes.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	matched := candidates[:0]
	for _, n := range candidates {
		if filter.Matches(n) {
			matched = append(matched, n)
		}
	}
	sortNotes(matched)
	return Paginate(matched, params), nil
}
