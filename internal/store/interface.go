// Package store defines the persistence interface for the Quill server and
// provides the embedded Badger backend.
package store

import (
	"context"

	"github.com/quillnotes/quill-server/internal/domain"
)

// UserStore persists user accounts. Email uniqueness is case-insensitive.
type UserStore interface {
	// CreateUser inserts user. Returns ErrAlreadyExists when the id or email is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateUser replaces the stored user and increments its Version in place.
	UpdateUser(ctx context.Context, user *domain.User) error
	// ListUsers returns users newest first.
	ListUsers(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.User], error)
}

// NoteStore persists notes.
type NoteStore interface {
	CreateNote(ctx context.Context, note *domain.Note) error
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	// GetOwnedNote matches id and owner together; a note owned by someone
	// else is reported as ErrNotFound.
	GetOwnedNote(ctx context.Context, id, ownerID string) (*domain.Note, error)
	// UpdateNote replaces the stored note and increments its Version in place.
	UpdateNote(ctx context.Context, note *domain.Note) error
	DeleteNote(ctx context.Context, id string) error
	// ListNotes returns the notes matching filter, newest first.
	ListNotes(ctx context.Context, filter domain.NoteFilter, params PaginationParams) (*PaginatedResult[*domain.Note], error)
}

// Store is a complete persistence backend.
type Store interface {
	UserStore
	NoteStore

	// Driver names the backend, e.g. "badger".
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
