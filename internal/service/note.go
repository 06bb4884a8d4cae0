package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillnotes/quill-server/internal/domain"
	domainerrors "github.com/quillnotes/quill-server/internal/errors"
	"github.com/quillnotes/quill-server/internal/id"
	"github.com/quillnotes/quill-server/internal/markdown"
	"github.com/quillnotes/quill-server/internal/metrics"
	"github.com/quillnotes/quill-server/internal/store"
)

// NoteIndexer is notified of every note mutation.
type NoteIndexer interface {
	IndexNote(ctx context.Context, note *domain.Note) error
	RemoveNote(ctx context.Context, noteID string) error
}

type noopIndexer struct{}

func (noopIndexer) IndexNote(context.Context, *domain.Note) error { return nil }
func (noopIndexer) RemoveNote(context.Context, string) error      { return nil }

// CreateNoteInput contains the fields of a new note.
type CreateNoteInput struct {
	Title    string   `json:"title" validate:"required,notblank"`
	Content  string   `json:"content" validate:"required,notblank"`
	Tags     []string `json:"tags,omitempty" validate:"max=50,dive,notblank"`
	Category string   `json:"category,omitempty"`
}

// UpdateNoteInput contains the fields to change. Nil fields are left as they are.
type UpdateNoteInput struct {
	Title    *string   `json:"title,omitempty" validate:"omitempty,notblank"`
	Content  *string   `json:"content,omitempty" validate:"omitempty,notblank"`
	Tags     *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,notblank"`
	Category *string   `json:"category,omitempty"`
}

// ImportNoteInput creates a note from an HTML document.
type ImportNoteInput struct {
	Title    string   `json:"title" validate:"required,notblank"`
	HTML     string   `json:"html" validate:"required,notblank"`
	Tags     []string `json:"tags,omitempty" validate:"max=50,dive,notblank"`
	Category string   `json:"category,omitempty"`
}

// ListNotesInput selects a page of the caller's notes.
type ListNotesInput struct {
	Page     int
	Limit    int
	Tags     string // comma separated; a note matches if it has any of them
	Category string
}

// NoteService provides owner-scoped access to notes.
type NoteService struct {
	store    store.NoteStore
	indexer  NoteIndexer
	renderer *markdown.Renderer
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(store store.NoteStore, recorder metrics.Recorder, logger *slog.Logger) *NoteService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &NoteService{
		store:    store,
		indexer:  noopIndexer{},
		renderer: markdown.NewRenderer(),
		metrics:  recorder,
		logger:   logger,
	}
}

// SetIndexer wires a search indexer. Must be called before serving requests.
func (s *NoteService) SetIndexer(indexer NoteIndexer) {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	s.indexer = indexer
}

// Create stores a new note owned by ownerID.
func (s *NoteService) Create(ctx context.Context, in CreateNoteInput, ownerID string) (*domain.Note, error) {
	if err := validate.Validate(in); err != nil {
		return nil, err
	}

	note := &domain.Note{
		ID:       id.New(),
		Title:    in.Title,
		Content:  in.Content,
		Tags:     domain.NormalizeTags(in.Tags),
		Category: in.Category,
		OwnerID:  ownerID,
	}
	note.InitTimestamps()

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, storeError(err, "create note", "note not found")
	}

	s.index(ctx, note)
	s.metrics.NoteOperation(metrics.OpCreate)
	s.logger.Info("note created", "note_id", note.ID, "owner", ownerID)
	return note, nil
}

// List returns the caller's notes matching in, newest first.
func (s *NoteService) List(ctx context.Context, in ListNotesInput, ownerID string) (*store.PaginatedResult[*domain.Note], error) {
	params, err := pageParams(in.Page, in.Limit)
	if err != nil {
		return nil, err
	}

	filter := domain.NoteFilter{
		OwnerID:  ownerID,
		Category: in.Category,
		Tags:     domain.ParseTagFilter(in.Tags),
	}
	result, err := s.store.ListNotes(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return result, nil
}

// Get returns a note only if ownerID owns it. Another owner's note is
// reported as not found.
func (s *NoteService) Get(ctx context.Context, noteID, ownerID string) (*domain.Note, error) {
	noteID, err := parseID(noteID)
	if err != nil {
		return nil, err
	}
	note, err := s.store.GetOwnedNote(ctx, noteID, ownerID)
	if err != nil {
		return nil, storeError(err, "get note", "note not found")
	}
	return note, nil
}

// Update applies the provided fields. The note is looked up by id first,
// so a non-owner gets Forbidden rather than NotFound.
func (s *NoteService) Update(ctx context.Context, noteID string, in UpdateNoteInput, ownerID string) (*domain.Note, error) {
	if err := validate.Validate(in); err != nil {
		return nil, err
	}
	note, err := s.ownedForWrite(ctx, noteID, ownerID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.Tags != nil {
		note.Tags = domain.NormalizeTags(*in.Tags)
	}
	if in.Category != nil {
		note.Category = *in.Category
	}
	note.Touch()

	if err := s.store.UpdateNote(ctx, note); err != nil {
		return nil, storeError(err, "update note", "note not found")
	}

	s.index(ctx, note)
	s.metrics.NoteOperation(metrics.OpUpdate)
	s.logger.Info("note updated", "note_id", note.ID, "version", note.Version)
	return note, nil
}

// Remove deletes a note and returns it as it was before deletion.
func (s *NoteService) Remove(ctx context.Context, noteID, ownerID string) (*domain.Note, error) {
	note, err := s.ownedForWrite(ctx, noteID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteNote(ctx, note.ID); err != nil {
		return nil, storeError(err, "delete note", "note not found")
	}

	if err := s.indexer.RemoveNote(ctx, note.ID); err != nil {
		s.logger.Warn("failed to remove note from index", "note_id", note.ID, "error", err)
	}
	s.metrics.NoteOperation(metrics.OpDelete)
	s.logger.Info("note deleted", "note_id", note.ID, "owner", ownerID)
	return note, nil
}

// RenderHTML returns the note's content as sanitized HTML. Lookup follows Get.
func (s *NoteService) RenderHTML(ctx context.Context, noteID, ownerID string) (string, error) {
	note, err := s.Get(ctx, noteID, ownerID)
	if err != nil {
		return "", err
	}
	html, err := s.renderer.Render(note.Content)
	if err != nil {
		return "", fmt.Errorf("render note: %w", err)
	}
	return html, nil
}

// Import converts an HTML document to Markdown and stores it as a new note.
func (s *NoteService) Import(ctx context.Context, in ImportNoteInput, ownerID string) (*domain.Note, error) {
	if err := validate.Validate(in); err != nil {
		return nil, err
	}

	content, err := markdown.FromHTML(in.HTML)
	if err != nil {
		return nil, domainerrors.Validation("html could not be converted").WithCause(err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"html": "has no text content",
		})
	}

	note, err := s.Create(ctx, CreateNoteInput{
		Title:    in.Title,
		Content:  content,
		Tags:     in.Tags,
		Category: in.Category,
	}, ownerID)
	if err != nil {
		return nil, err
	}
	s.metrics.NoteOperation(metrics.OpImport)
	return note, nil
}

// ownedForWrite loads a note by id, then checks ownership.
func (s *NoteService) ownedForWrite(ctx context.Context, noteID, ownerID string) (*domain.Note, error) {
	noteID, err := parseID(noteID)
	if err != nil {
		return nil, err
	}
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, storeError(err, "get note", "note not found")
	}
	if !note.IsOwnedBy(ownerID) {
		return nil, domainerrors.Forbidden("you do not have access to this note")
	}
	return note, nil
}

func (s *NoteService) index(ctx context.Context, note *domain.Note) {
	if err := s.indexer.IndexNote(ctx, note); err != nil {
		s.logger.Warn("failed to index note", "note_id", note.ID, "error", err)
	}
}
