// Package service implements the application's use cases on top of the
// store: sign-in, user administration, note access and search.
package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/quillnotes/quill-server/internal/errors"
	"github.com/quillnotes/quill-server/internal/id"
	"github.com/quillnotes/quill-server/internal/store"
	"github.com/quillnotes/quill-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// errInvalidID is returned for identifiers that are not well formed.
func errInvalidID() *domainerrors.Error {
	return domainerrors.Validation("Invalid ID")
}

// parseID validates and normalizes a record identifier.
func parseID(raw string) (string, error) {
	if !id.Valid(raw) {
		return "", errInvalidID()
	}
	return id.Normalize(raw), nil
}

// pageParams validates pagination input. Zero selects the default.
func pageParams(page, limit int) (store.PaginationParams, error) {
	if page < 0 || limit < 0 {
		return store.PaginationParams{}, domainerrors.ValidationWithDetails("invalid pagination", map[string]string{
			"page":  "must be a positive integer",
			"limit": "must be a positive integer",
		})
	}
	params := store.PaginationParams{Page: page, Limit: limit}.Normalize()
	if !params.InRange() {
		return store.PaginationParams{}, domainerrors.ValidationWithDetails("invalid pagination", map[string]string{
			"page": "is out of range for the requested limit",
		})
	}
	return params, nil
}

// storeError translates store errors into domain errors. Anything the
// store does not classify is returned wrapped with op as an internal fault.
func storeError(err error, op, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFound)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists("resource already exists").WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation("invalid input").WithCause(err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
