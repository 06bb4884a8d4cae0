package api

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill-server/internal/domain"
)

func TestGoogleLogin_RedirectsWithStateCookie(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/auth/google")
	require.Equal(t, http.StatusFound, resp.Code)

	location, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, oauthStateCookie, cookies[0].Name)
	assert.Equal(t, state, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 600, cookies[0].MaxAge)
}

func TestGoogleCallback_CreatesUserAndIssuesToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/auth/google/redirect?code=code-new@test.com&state=s1", "Cookie: oauth_state=s1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decode[LoginResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Login successful", body.Message)
	assert.NotEmpty(t, body.AccessToken)
	require.NotNil(t, body.User)
	assert.Equal(t, "new@test.com", body.User.Email)
	assert.Equal(t, domain.RoleUser, body.User.Role)
	assert.Equal(t, domain.ProviderGoogle, body.User.Provider)
	assert.False(t, body.ExpiresAt.IsZero())

	// The token works and a second sign-in finds the same user.
	profile := ts.api.Get("/auth/profile", "Authorization: Bearer "+body.AccessToken)
	require.Equal(t, http.StatusOK, profile.Code)
	assert.Equal(t, body.User.ID, decode[domain.User](t, profile.Body.Bytes()).ID)

	again := ts.api.Get("/auth/google/redirect?code=code-new@test.com&state=s2", "Cookie: oauth_state=s2")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, body.User.ID, decode[LoginResponse](t, again.Body.Bytes()).User.ID)
}

func TestGoogleCallback_AdminEmail(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/auth/google/redirect?code=code-"+adminEmail+"&state=s", "Cookie: oauth_state=s")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, domain.RoleAdmin, decode[LoginResponse](t, resp.Body.Bytes()).User.Role)
}

func TestGoogleCallback_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		cookie string
		status int
		code   string
	}{
		{"missing code", "/auth/google/redirect?state=s", "oauth_state=s", http.StatusBadRequest, "VALIDATION"},
		{"missing cookie", "/auth/google/redirect?code=code-a@test.com&state=s", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"state mismatch", "/auth/google/redirect?code=code-a@test.com&state=s", "oauth_state=other", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"provider rejects code", "/auth/google/redirect?code=bogus&state=s", "oauth_state=s", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args []any
			if tt.cookie != "" {
				args = append(args, "Cookie: "+tt.cookie)
			}
			resp := ts.api.Get(tt.path, args...)
			requireError(t, resp.Code, tt.status, tt.code, resp.Body.Bytes())
		})
	}
}

func TestGoogleCallback_StateCheckDisabled(t *testing.T) {
	ts := newTestServer(t)
	ts.opts.OAuthStateCheck = false

	resp := ts.api.Get("/auth/google/redirect?code=code-a@test.com")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestProfile_Authentication(t *testing.T) {
	ts := newTestServer(t)
	authHeader, user := ts.signIn(t, "me@test.com")

	tests := []struct {
		name   string
		header []any
		status int
		code   string
	}{
		{"no header", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", []any{"Authorization: Basic abc"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage token", []any{"Authorization: Bearer not.a.token"}, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/auth/profile", tt.header...)
			requireError(t, resp.Code, tt.status, tt.code, resp.Body.Bytes())
		})
	}

	resp := ts.api.Get("/auth/profile", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decode[domain.User](t, resp.Body.Bytes())
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "me@test.com", got.Email)
}

func TestProfile_ReflectsCurrentRole(t *testing.T) {
	ts := newTestServer(t)
	authHeader, user := ts.signIn(t, "promoted@test.com")

	_, err := ts.services.User.AssignRole(context.Background(), user.ID, domain.RoleAdmin)
	require.NoError(t, err)

	resp := ts.api.Get("/auth/profile", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, domain.RoleAdmin, decode[domain.User](t, resp.Body.Bytes()).Role)
}
