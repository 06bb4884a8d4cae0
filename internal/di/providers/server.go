package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/api"
	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/logger"
	"github.com/quillnotes/quill-server/internal/service"
)

// HTTPServerHandle wraps the HTTP server with shutdown capability.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.api.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	searchHandle := do.MustInvoke[*SearchHandle](i)

	services := &api.Services{
		Auth:   do.MustInvoke[*service.AuthService](i),
		User:   do.MustInvoke[*service.UserService](i),
		Note:   do.MustInvoke[*service.NoteService](i),
		Search: searchHandle.Service,
	}

	opts := api.Options{
		CORSOrigins:     cfg.Server.CORSOrigins,
		AuthRateLimit:   cfg.Auth.RateLimitPerMinute,
		OAuthStateCheck: cfg.Google.StateCheck,
		SecureCookies:   cfg.App.IsProduction(),
		Metrics:         metricsHandle.Collector,
	}
	if metricsHandle.Registry != nil {
		opts.Gatherer = metricsHandle.Registry
	}

	apiServer := api.NewServer(storeHandle.Store, services, opts, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: apiServer}, nil
}
