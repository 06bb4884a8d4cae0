package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillnotes/quill-server/internal/domain"
	domainerrors "github.com/quillnotes/quill-server/internal/errors"
	"github.com/quillnotes/quill-server/internal/service"
	"github.com/quillnotes/quill-server/internal/store"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/notes",
		Summary:       "Create note",
		Description:   "Creates a note owned by the caller",
		Tags:          []string{"Notes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/notes",
		Summary:     "List notes",
		Description: "Returns the caller's notes newest first, optionally filtered by category and tags",
		Tags:        []string{"Notes"},
		Security:    bearerSecurity,
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchNotes",
		Method:      http.MethodGet,
		Path:        "/notes/search",
		Summary:     "Search notes",
		Description: "Full-text search over the caller's notes",
		Tags:        []string{"Notes"},
		Security:    bearerSecurity,
	}, s.handleSearchNotes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "importNote",
		Method:        http.MethodPost,
		Path:          "/notes/import",
		Summary:       "Import HTML",
		Description:   "Converts an HTML document to Markdown and stores it as a new note",
		Tags:          []string{"Notes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleImportNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNote",
		Method:      http.MethodGet,
		Path:        "/notes/{id}",
		Summary:     "Get note",
		Description: "Returns one of the caller's notes",
		Tags:        []string{"Notes"},
		Security:    bearerSecurity,
	}, s.handleGetNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "renderNote",
		Method:      http.MethodGet,
		Path:        "/notes/{id}/html",
		Summary:     "Render note",
		Description: "Returns the note's Markdown content as sanitized HTML",
		Tags:        []string{"Notes"},
		Security:    bearerSecurity,
	}, s.handleRenderNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPut,
		Path:        "/notes/{id}",
		Summary:     "Update note",
		Description: "Replaces title and content; tags and category change only when present",
		Tags:        []string{"Notes"},
		Security:    bearerSecurity,
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNote",
		Method:      http.MethodDelete,
		Path:        "/notes/{id}",
		Summary:     "Delete note",
		Description: "Deletes a note and returns it as it was",
		Tags:        []string{"Notes"},
		Security:    bearerSecurity,
	}, s.handleDeleteNote)
}

// === DTOs ===

// PageQuery holds the pagination query parameters.
type PageQuery struct {
	Page  int `query:"page" default:"1" minimum:"1" doc:"1-based page number"`
	Limit int `query:"limit" default:"10" minimum:"1" doc:"Items per page"`
}

// NoteIDInput addresses a single note.
type NoteIDInput struct {
	AuthenticatedInput
	ID string `path:"id" doc:"Note ID"`
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title    string   `json:"title" minLength:"1" doc:"Note title"`
	Content  string   `json:"content" minLength:"1" doc:"Markdown content"`
	Tags     []string `json:"tags,omitempty" maxItems:"50" doc:"Tags"`
	Category string   `json:"category,omitempty" doc:"Category"`
}

// CreateNoteInput wraps the create request for Huma.
type CreateNoteInput struct {
	AuthenticatedInput
	Body CreateNoteRequest
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Title    string    `json:"title" minLength:"1" doc:"Note title"`
	Content  string    `json:"content" minLength:"1" doc:"Markdown content"`
	Tags     *[]string `json:"tags,omitempty" maxItems:"50" doc:"Replaces the tags when present; [] clears them"`
	Category *string   `json:"category,omitempty" doc:"Replaces the category when present"`
}

// UpdateNoteInput wraps the update request for Huma.
type UpdateNoteInput struct {
	NoteIDInput
	Body UpdateNoteRequest
}

// ListNotesInput selects a page of notes.
type ListNotesInput struct {
	AuthenticatedInput
	PageQuery
	Tags     string `query:"tags" doc:"Comma separated tags; a note matches if it has any of them"`
	Category string `query:"category" doc:"Exact category"`
}

// SearchNotesInput selects a page of search hits.
type SearchNotesInput struct {
	AuthenticatedInput
	PageQuery
	Query string `query:"q" doc:"Search terms; empty lists newest notes first"`
}

// ImportNoteRequest is the request body for importing HTML.
type ImportNoteRequest struct {
	Title    string   `json:"title" minLength:"1" doc:"Note title"`
	HTML     string   `json:"html" minLength:"1" doc:"HTML document"`
	Tags     []string `json:"tags,omitempty" maxItems:"50" doc:"Tags"`
	Category string   `json:"category,omitempty" doc:"Category"`
}

// ImportNoteInput wraps the import request for Huma.
type ImportNoteInput struct {
	AuthenticatedInput
	Body ImportNoteRequest
}

// NoteOutput wraps a single note for Huma.
type NoteOutput struct {
	Body *domain.Note
}

// NoteListOutput wraps a page of notes for Huma.
type NoteListOutput struct {
	Body *store.PaginatedResult[*domain.Note]
}

// RenderedNote is a note's content rendered to HTML.
type RenderedNote struct {
	ID   string `json:"id" doc:"Note ID"`
	HTML string `json:"html" doc:"Sanitized HTML"`
}

// RenderedNoteOutput wraps a rendered note for Huma.
type RenderedNoteOutput struct {
	Body RenderedNote
}

// === Handlers ===

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Create(ctx, service.CreateNoteInput{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		Tags:     input.Body.Tags,
		Category: input.Body.Category,
	}, user.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleListNotes(ctx context.Context, input *ListNotesInput) (*NoteListOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Note.List(ctx, service.ListNotesInput{
		Page:     input.Page,
		Limit:    input.Limit,
		Tags:     input.Tags,
		Category: input.Category,
	}, user.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &NoteListOutput{Body: page}, nil
}

func (s *Server) handleSearchNotes(ctx context.Context, input *SearchNotesInput) (*NoteListOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if s.services.Search == nil {
		return nil, s.apiError(domainerrors.NotFound("search is disabled"))
	}

	page, err := s.services.Search.Search(ctx, user.ID, input.Query, input.Page, input.Limit)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &NoteListOutput{Body: page}, nil
}

func (s *Server) handleImportNote(ctx context.Context, input *ImportNoteInput) (*NoteOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Import(ctx, service.ImportNoteInput{
		Title:    input.Body.Title,
		HTML:     input.Body.HTML,
		Tags:     input.Body.Tags,
		Category: input.Body.Category,
	}, user.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleGetNote(ctx context.Context, input *NoteIDInput) (*NoteOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Get(ctx, input.ID, user.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleRenderNote(ctx context.Context, input *NoteIDInput) (*RenderedNoteOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	html, err := s.services.Note.RenderHTML(ctx, input.ID, user.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &RenderedNoteOutput{Body: RenderedNote{ID: input.ID, HTML: html}}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Update(ctx, input.ID, service.UpdateNoteInput{
		Title:    &input.Body.Title,
		Content:  &input.Body.Content,
		Tags:     input.Body.Tags,
		Category: input.Body.Category,
	}, user.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteIDInput) (*NoteOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Remove(ctx, input.ID, user.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &NoteOutput{Body: note}, nil
}
