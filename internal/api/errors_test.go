package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/quillnotes/quill-server/internal/errors"
)

func TestRegisterErrorHandler(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name    string
		status  int
		message string
		errs    []error
		want    APIError
	}{
		{
			name:    "domain error wins over status",
			status:  http.StatusInternalServerError,
			message: "unexpected error occurred",
			errs:    []error{domainerrors.Forbidden("nope")},
			want:    APIError{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "nope"},
		},
		{
			name:    "validation failure becomes 400",
			status:  http.StatusUnprocessableEntity,
			message: "validation failed",
			errs:    []error{&huma.ErrorDetail{Location: "body.title", Message: "expected required property title to be present"}},
			want: APIError{
				Status:  http.StatusBadRequest,
				Code:    "VALIDATION",
				Message: "validation failed",
				Details: map[string]string{"body.title": "expected required property title to be present"},
			},
		},
		{
			name:    "internal message hidden",
			status:  http.StatusInternalServerError,
			message: "unexpected error occurred",
			errs:    []error{errors.New("disk on fire")},
			want:    APIError{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: "internal server error"},
		},
		{
			name:    "prepared API error kept as is",
			status:  http.StatusUnauthorized,
			message: "token expired",
			errs:    []error{&APIError{Status: http.StatusUnauthorized, Code: "TOKEN_EXPIRED", Message: "token expired"}},
			want:    APIError{Status: http.StatusUnauthorized, Code: "TOKEN_EXPIRED", Message: "token expired"},
		},
		{
			name:    "plain not found",
			status:  http.StatusNotFound,
			message: "missing",
			want:    APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := huma.NewError(tt.status, tt.message, tt.errs...)
			apiErr, ok := got.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.want, *apiErr)
			assert.Equal(t, tt.want.Status, got.GetStatus())
		})
	}
}

func TestServerAPIError(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", domainerrors.NotFound("note not found"), http.StatusNotFound, "NOT_FOUND", "note not found"},
		{"wrapped", fmt.Errorf("get: %w", domainerrors.Validation("Invalid ID")), http.StatusBadRequest, "VALIDATION", "Invalid ID"},
		{"expired token", domainerrors.TokenExpired("token expired"), http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired"},
		{"infrastructure", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
		{"internal domain", domainerrors.Internal("secret detail"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *APIError
			require.ErrorAs(t, s.apiError(tt.err), &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}
