package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill-server/internal/auth"
	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/metrics"
	"github.com/quillnotes/quill-server/internal/search"
	"github.com/quillnotes/quill-server/internal/service"
	"github.com/quillnotes/quill-server/internal/store"
)

const adminEmail = "admin@test.com"

// fakeProvider signs in whoever is named by the code: "code-<email>".
type fakeProvider struct{}

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(_ context.Context, code string) (*domain.Profile, error) {
	email, ok := strings.CutPrefix(code, "code-")
	if !ok {
		return nil, fmt.Errorf("%w: bad code", auth.ErrProviderExchange)
	}
	return &domain.Profile{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Provider:  domain.ProviderGoogle,
	}, nil
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api      humatest.TestAPI
	store    *store.BadgerStore
	registry *prometheus.Registry
}

type testConfig struct {
	options Options
	search  bool
}

type testServerOption func(*testConfig)

func withAuthRateLimit(n int) testServerOption {
	return func(c *testConfig) { c.options.AuthRateLimit = n }
}

func withoutSearch() testServerOption {
	return func(c *testConfig) { c.search = false }
}

// newTestServer builds the server the same way production does, on an
// in-memory store and index.
func newTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()

	st, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	issuer, err := auth.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	users := service.NewUserService(st, logger,
		service.WithAdminEmails([]string{adminEmail}),
		service.WithUserMetrics(collector))
	notes := service.NewNoteService(st, collector, logger)

	cfg := testConfig{
		options: Options{
			OAuthStateCheck: true,
			Metrics:         collector,
			Gatherer:        registry,
		},
		search: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	services := &Services{
		Auth: service.NewAuthService(users, issuer, fakeProvider{}, collector, logger),
		User: users,
		Note: notes,
	}
	if cfg.search {
		idx, err := search.NewInMemory(logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = idx.Close() })
		services.Search = service.NewSearchService(idx, st, logger)
		notes.SetIndexer(services.Search)
	}

	s := NewServer(st, services, cfg.options, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server:   s,
		api:      humatest.Wrap(t, s.api),
		store:    st,
		registry: registry,
	}
}

// signIn creates (or finds) the user and returns a bearer header for them.
func (ts *testServer) signIn(t *testing.T, email string) (string, *domain.User) {
	t.Helper()
	ctx := context.Background()

	user, err := ts.services.User.FindOrCreate(ctx, domain.Profile{Email: email, FirstName: "Test"})
	require.NoError(t, err)
	result, err := ts.services.Auth.IssueToken(user)
	require.NoError(t, err)

	return "Authorization: Bearer " + result.AccessToken, user
}

func (ts *testServer) createNote(t *testing.T, authHeader string, body map[string]any) *domain.Note {
	t.Helper()
	resp := ts.api.Post("/notes", authHeader, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.Note](t, resp.Body.Bytes())
}

func decode[T any](t *testing.T, data []byte) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return &v
}

// requireError checks the status and error body of a failed request.
func requireError(t *testing.T, code int, status int, errCode string, body []byte) *APIError {
	t.Helper()
	require.Equal(t, status, code, string(body))
	apiErr := decode[APIError](t, body)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, errCode, apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)
	return apiErr
}

// === Tests ===

func TestUnknownRoute_JSONNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/does-not-exist")
	requireError(t, resp.Code, http.StatusNotFound, "NOT_FOUND", resp.Body.Bytes())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	authHeader, _ := ts.signIn(t, "metrics@test.com")
	ts.createNote(t, authHeader, map[string]any{"title": "t", "content": "c"})

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, `quill_note_operations_total{op="create"} 1`)
	assert.Contains(t, body, `route="/notes"`)
}

func TestAuthRateLimit(t *testing.T) {
	ts := newTestServer(t, withAuthRateLimit(2))

	for range 2 {
		resp := ts.api.Get("/auth/google")
		require.Equal(t, http.StatusFound, resp.Code)
	}

	resp := ts.api.Get("/auth/google")
	requireError(t, resp.Code, http.StatusTooManyRequests, "RATE_LIMITED", resp.Body.Bytes())

	// Other routes are not limited.
	resp = ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRequestIDHeaderAccepted(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/health", "X-Request-ID: abc-123")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Do(http.MethodOptions, "/notes",
		"Origin: https://app.example.com",
		"Access-Control-Request-Method: POST",
		"Access-Control-Request-Headers: Authorization")

	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}
