/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the console frontend

ROUTE GROUPS:
  /api/shift/*        Duty derivation (now, month calendar)
  /api/attendance/*   Attendance sheets
  /api/billing/*      Monthly reconciliation and paid overlay
  /api/bookings/*     Vehicle reservations

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
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Duty derivation
		r.Route("/shift", func(r chi.Router) {
			r.Get("/now", h.GetNow)
			r.Get("/calendar", h.GetCalendar)
		})

		// Attendance sheets
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/{date}/{group}", h.GetAttendance)
			r.Put("/{date}/{group}", h.UpsertAttendance)
			r.Post("/{date}/{group}/reopen", h.ReopenAttendance)
			r.Delete("/{date}/{group}", h.PurgeAttendance)
		})

		// Billing
		r.Route("/billing", func(r chi.Router) {
			r.Get("/{year}/{month}", h.GetBillingMonth)
			r.Put("/{year}/{month}/{group}/paid", h.SetPaid)
		})

		// Vehicle bookings
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/", h.CreateBooking)
			r.Put("/{id}", h.AmendBooking)
			r.Post("/{id}/cancel", h.CancelBooking)
		})
	})

	return r
}
