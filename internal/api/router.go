package api

import (
	"distance-batch-service/internal/api/handlers"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(runs *handlers.RunHandler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runs.Logger == nil {
		runs.Logger = logger
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))

	r.Get("/health", handlers.Health)

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", runs.Create)
		r.Get("/{id}", runs.Get)
		r.Get("/{id}/csv", runs.CSV)
	})

	return r
}
