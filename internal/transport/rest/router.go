// Package rest exposes the pipeline's single analyze endpoint over HTTP,
// grounded in the teacher's chi router assembly and request-scoped logging
// middleware.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"interactions-backend/internal/orchestrator"
)

// NewRouter builds the full HTTP handler: global middleware, health
// checks, and the versioned API surface. usage may be nil to skip usage
// logging entirely.
func NewRouter(deps *orchestrator.Deps, logger *zap.Logger, debug bool, usage UsageRecorder) http.Handler {
	handler := NewHandler(deps, logger, debug, usage)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/health", healthCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", handler.Analyze)
	})

	return router
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
