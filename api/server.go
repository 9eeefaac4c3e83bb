/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the receipt form frontend

ROUTE GROUPS:
  /api/liquidacion/*   Monthly receipts and final settlements
  /api/meta            Schedule dropdown tree
  /api/escala          Single schedule row
  /health              Liveness probe

SECURITY NOTE:
  No authentication middleware. The engine is stateless and read-only
  over public wage scales; deploy behind a gateway if exposure matters.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/meta", h.GetMeta)
		r.Get("/escala", h.GetScale)

		r.Route("/liquidacion", func(r chi.Router) {
			r.Post("/mensual", h.ComputeMonthly)
			r.Get("/mensual", h.ComputeMonthlyQuery)
			r.Post("/final", h.ComputeFinal)
			r.Get("/final", h.ComputeFinalQuery)
		})
	})

	return r
}
