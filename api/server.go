/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/health, /api/setup, /api/auth   Public
  /api/*                               Bearer token required
  /api/admin/*                         Admin account required

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)
		r.Get("/setup/status", h.SetupStatus)
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)

			r.Route("/logs", func(r chi.Router) {
				r.Get("/", h.ListLogs)
				r.Post("/daily", h.SubmitLog)
				r.Get("/streak", h.GetStreak)
			})

			r.Route("/journal", func(r chi.Router) {
				r.Get("/", h.JournalHistory)
				r.Get("/today", h.JournalToday)
				r.Put("/today", h.UpsertJournal)
			})

			r.Route("/bank", func(r chi.Router) {
				r.Get("/summary", h.BankSummary)
				r.Get("/savings", h.Savings)
			})

			r.Route("/prizes", func(r chi.Router) {
				r.Get("/", h.ListPrizes)
				r.Post("/", h.CreatePrize)
				r.Put("/{id}", h.UpdatePrize)
				r.Delete("/{id}", h.DeletePrize)
				r.Post("/{id}/purchase", h.PurchasePrize)
				r.Post("/{id}/restock", h.RestockPrize)
			})
			r.Get("/purchases", h.ListPurchases)

			r.Route("/motivation", func(r chi.Router) {
				r.Get("/quotes", h.Quotes)
				r.Get("/quotes/random", h.RandomQuote)
			})

			r.Route("/checklist", func(r chi.Router) {
				r.Get("/", h.ChecklistStatus)
				r.Put("/", h.SetChecklist)
				r.Post("/score", h.ScoreChecklist)
			})

			r.Route("/breathing", func(r chi.Router) {
				r.Get("/", h.BreathStatus)
				r.Post("/sessions", h.RecordBreath)
			})
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Get("/users", h.ListUsers)
			r.Post("/users/{id}/set-points", h.SetPoints)
			r.Post("/users/{id}/reset-pin", h.ResetPin)
			r.Delete("/users/{id}", h.DeleteUser)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
