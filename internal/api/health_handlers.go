package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/quillnotes/quill-server/internal/errors"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Pings the store and reports which optional components are running",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status       string `json:"status" doc:"ok when the store answered"`
	Store        string `json:"store" doc:"Store driver name"`
	StoreLatency string `json:"storeLatency" doc:"Time taken by the store ping"`
	Search       string `json:"search" doc:"enabled or disabled"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.store.Ping(pingCtx); err != nil {
		s.logger.Error("health check: store ping failed", "driver", s.store.Driver(), "error", err)
		return nil, s.apiError(domainerrors.Unavailable("store unavailable"))
	}

	search := "disabled"
	if s.services.Search != nil {
		search = "enabled"
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:       "ok",
			Store:        s.store.Driver(),
			StoreLatency: time.Since(start).String(),
			Search:       search,
		},
	}, nil
}
