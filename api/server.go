/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/loyalty/*       Point ledger and reward catalog
  /api/clients/*       Client registry
  /api/transactions/*  Financial transactions
  /api/categories/*    Transaction categories
  /api/reports/*       Financial summaries
  /api/campaigns/*     Segment audience and dispatch
  /api/promotions/*    Promotions catalog

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Loyalty routes
		r.Route("/loyalty", func(r chi.Router) {
			r.Post("/points/add", h.AddEarn)
			r.Post("/points/redeem", h.Redeem)
			r.Get("/points/{clientID}", h.GetBalance)
			r.Get("/history/{clientID}", h.GetHistory)

			r.Route("/rewards", func(r chi.Router) {
				r.Get("/", h.ListRewards)
				r.Post("/", h.CreateReward)
				r.Get("/{id}", h.GetReward)
				r.Put("/{id}", h.UpdateReward)
				r.Delete("/{id}", h.DeleteReward)
			})
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeleteClient)
		})

		// Financial transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		// Category routes
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
			r.Get("/summary-by-category", h.GetSummaryByCategory)
		})

		// Campaign routes
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/audience", h.GetAudience)
			r.Post("/send", h.SendCampaign)
		})

		// Promotion catalog routes
		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", h.ListPromotions)
			r.Post("/", h.CreatePromotion)
			r.Get("/{id}", h.GetPromotion)
			r.Put("/{id}", h.UpdatePromotion)
			r.Delete("/{id}", h.DeletePromotion)
		})
	})

	return r
}
