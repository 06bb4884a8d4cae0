// Package api provides the HTTP API server and handlers for Quill.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillnotes/quill-server/internal/http/response"
	"github.com/quillnotes/quill-server/internal/metrics"
	"github.com/quillnotes/quill-server/internal/ratelimit"
	"github.com/quillnotes/quill-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string
	// AuthRateLimit is the number of /auth requests allowed per client IP per minute.
	// Zero disables the limiter.
	AuthRateLimit int
	// OAuthStateCheck compares the callback state with the oauth_state cookie.
	OAuthStateCheck bool
	// SecureCookies marks the oauth_state cookie Secure.
	SecureCookies bool
	// Metrics is nil when metrics are disabled.
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	opts            Options
	router          *chi.Mux
	api             huma.API
	authRateLimiter *ratelimit.KeyedRateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:    st,
		services: services,
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	if opts.AuthRateLimit > 0 {
		s.authRateLimiter = ratelimit.PerMinute(opts.AuthRateLimit)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Quill API", "1.0.0")
	humaConfig.Info.Description = "Personal notes behind Google sign-in"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	s.api.UseMiddleware(s.requireBearer)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.authRateLimiter != nil {
		s.authRateLimiter.Stop()
	}
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.opts.Metrics != nil {
		s.router.Use(metrics.Middleware(s.opts.Metrics))
	}
	if s.authRateLimiter != nil {
		s.router.Use(RateLimitMiddleware(s.authRateLimiter, "/auth/", s.logger))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerNoteRoutes()
	s.registerUserRoutes()

	if s.opts.Metrics != nil && s.opts.Gatherer != nil {
		s.router.Handle("/metrics", metrics.Handler(s.opts.Gatherer))
	}
}
