package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/quillnotes/quill-server/internal/errors"
	"github.com/quillnotes/quill-server/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusCreated, map[string]string{"message": "test"}, discardLogger())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"test"}`, w.Body.String())
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string, *slog.Logger)
		status int
		code   string
	}{
		{"BadRequest", BadRequest, http.StatusBadRequest, "VALIDATION"},
		{"Unauthorized", Unauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"Forbidden", Forbidden, http.StatusForbidden, "FORBIDDEN"},
		{"NotFound", NotFound, http.StatusNotFound, "NOT_FOUND"},
		{"MethodNotAllowed", MethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"TooManyRequests", TooManyRequests, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"InternalError", InternalError, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w, "boom", discardLogger())

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "boom", body.Message)
			assert.Nil(t, body.Details)
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "domain error",
			err:     domainerrors.Forbidden("not yours"),
			status:  http.StatusForbidden,
			code:    "FORBIDDEN",
			message: "not yours",
		},
		{
			name:    "wrapped domain error",
			err:     fmt.Errorf("op: %w", domainerrors.NotFound("note not found")),
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: "note not found",
		},
		{
			name:    "store error",
			err:     store.ErrNotFound,
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: store.ErrNotFound.Message,
		},
		{
			name:    "internal domain error hides message",
			err:     domainerrors.Internal("db password is hunter2"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL",
			message: "internal server error",
		},
		{
			name:    "unknown error",
			err:     errors.New("connection refused"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL",
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discardLogger())

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestHandleError_Details(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"}), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t,
		`{"status":400,"code":"VALIDATION","message":"validation failed","details":{"title":"is required"}}`,
		w.Body.String())
}
