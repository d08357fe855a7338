package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airmonitor/airmonitor/internal/middleware"
)

// NewRouter creates and configures the exporter router
func NewRouter(fetcher StateFetcher, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// Initialize handlers
	healthHandler := NewHealthHandler()
	airMonitorHandler := NewAirMonitorHandler(fetcher, logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/air_monitor", airMonitorHandler.Scrape)

	return r
}
