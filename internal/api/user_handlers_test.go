package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/id"
	"github.com/quillnotes/quill-server/internal/store"
)

type userPage = store.PaginatedResult[*domain.User]

func TestListUsers_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	userHeader, _ := ts.signIn(t, "plain@test.com")

	resp := ts.api.Get("/users", userHeader)
	requireError(t, resp.Code, http.StatusForbidden, "FORBIDDEN", resp.Body.Bytes())

	resp = ts.api.Get("/users")
	requireError(t, resp.Code, http.StatusUnauthorized, "UNAUTHORIZED", resp.Body.Bytes())
}

func TestListUsers(t *testing.T) {
	ts := newTestServer(t)
	ts.signIn(t, "first@test.com")
	ts.signIn(t, "second@test.com")
	adminHeader, admin := ts.signIn(t, adminEmail)
	require.Equal(t, domain.RoleAdmin, admin.Role)

	resp := ts.api.Get("/users?limit=2", adminHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	page := decode[userPage](t, resp.Body.Bytes())
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, adminEmail, page.Data[0].Email)
	assert.Equal(t, "second@test.com", page.Data[1].Email)

	resp = ts.api.Get("/users?page=0", adminHeader)
	requireError(t, resp.Code, http.StatusBadRequest, "VALIDATION", resp.Body.Bytes())
}

func TestAssignRole(t *testing.T) {
	ts := newTestServer(t)
	adminHeader, _ := ts.signIn(t, adminEmail)
	userHeader, user := ts.signIn(t, "plain@test.com")

	resp := ts.api.Patch("/users", adminHeader, map[string]any{"userId": user.ID, "role": "admin"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[domain.User](t, resp.Body.Bytes())
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, 1, updated.Version)

	// The promotion applies to the user's existing token.
	resp = ts.api.Get("/users", userHeader)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAssignRole_Errors(t *testing.T) {
	ts := newTestServer(t)
	adminHeader, _ := ts.signIn(t, adminEmail)
	userHeader, user := ts.signIn(t, "plain@test.com")

	tests := []struct {
		name   string
		header string
		body   map[string]any
		status int
		code   string
	}{
		{"not admin", userHeader, map[string]any{"userId": user.ID, "role": "admin"}, http.StatusForbidden, "FORBIDDEN"},
		{"unknown role", adminHeader, map[string]any{"userId": user.ID, "role": "owner"}, http.StatusBadRequest, "VALIDATION"},
		{"malformed id", adminHeader, map[string]any{"userId": "123", "role": "user"}, http.StatusBadRequest, "VALIDATION"},
		{"unknown user", adminHeader, map[string]any{"userId": id.New(), "role": "user"}, http.StatusNotFound, "NOT_FOUND"},
		{"missing role", adminHeader, map[string]any{"userId": user.ID}, http.StatusBadRequest, "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Patch("/users", tt.header, tt.body)
			requireError(t, resp.Code, tt.status, tt.code, resp.Body.Bytes())
		})
	}
}

func TestUserRoutes_GuardBeforeInputValidation(t *testing.T) {
	ts := newTestServer(t)
	adminHeader, _ := ts.signIn(t, adminEmail)
	userHeader, _ := ts.signIn(t, "nosy@test.com")

	resp := ts.api.Get("/users?page=0")
	requireError(t, resp.Code, http.StatusUnauthorized, "UNAUTHORIZED", resp.Body.Bytes())

	resp = ts.api.Get("/users?page=0", userHeader)
	requireError(t, resp.Code, http.StatusForbidden, "FORBIDDEN", resp.Body.Bytes())

	resp = ts.api.Patch("/users", userHeader, map[string]any{"role": 5})
	requireError(t, resp.Code, http.StatusForbidden, "FORBIDDEN", resp.Body.Bytes())

	resp = ts.api.Patch("/users", adminHeader, map[string]any{"role": 5})
	requireError(t, resp.Code, http.StatusBadRequest, "VALIDATION", resp.Body.Bytes())

	resp = ts.api.Get("/users?page=4611686018427387905&limit=2", adminHeader)
	requireError(t, resp.Code, http.StatusBadRequest, "VALIDATION", resp.Body.Bytes())
}
