package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthTimeout bounds the component checks of /health.
const healthTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/fixtures", func(r chi.Router) {
			r.Get("/", s.handleListFixtures)
			r.Post("/", s.handleSpawnFixture)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetFixture)
				r.Delete("/", s.handleDespawnFixture)
				r.Get("/history", s.handleFixtureHistory)
				r.Post("/power", s.handlePower)
				r.Post("/damage", s.handleDamage)
				r.Post("/interactions", s.handleInteraction)
				r.Put("/link", s.handleSetLink)
				r.Delete("/link", s.handleClearLink)
			})
		})

		r.Route("/switches", func(r chi.Router) {
			r.Get("/", s.handleListSwitches)
			r.Post("/{id}/toggle", s.handleToggleSwitch)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth reports the server and its optional components. A failing
// component turns the status to "degraded" with 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	checks := map[string]string{}
	status := "ok"

	if s.db != nil {
		checks["database"] = "ok"
		if err := s.db.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = "degraded"
		}
	}
	if s.mqtt != nil {
		checks["mqtt"] = "ok"
		if !s.mqtt.IsConnected() {
			checks["mqtt"] = "disconnected"
			status = "degraded"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"version":  s.version,
		"fixtures": s.registry.Count(),
		"checks":   checks,
	})
}
