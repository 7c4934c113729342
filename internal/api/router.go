package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reelgrab/internal/api/handler"
	mw "reelgrab/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(healthHandler *handler.HealthHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(30 * time.Second))

	// Hosting platforms probe the root path.
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	return r
}
