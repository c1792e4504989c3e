package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/profile", s.handleProfile)

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)
				r.Get("/all", s.handleListAllDevices)
				r.Get("/stats", s.handleDeviceStats)
				r.Get("/search", s.handleSearchDevices)
				r.Get("/nearby", s.handleNearbyDevices)

				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Patch("/status", s.handleUpdateDeviceStatus)
				})
			})
		})
	})

	return r
}
