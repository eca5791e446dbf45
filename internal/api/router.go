/**
 * @description
 * HTTP router setup for the dunning service using go-chi/chi.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers dunning routes.
func NewRouter(h *Handler, adminJWKSURL string, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Dunning service is healthy"))
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))
		r.Post("/dunning/run", h.handleRunDunningProcess)
		r.Get("/dunning/runs/latest", h.handleLatestRun)
		r.Post("/invoices/{id}/payments", h.handleRecordPayment)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(adminJWKSURL))
		r.Post("/customers/{customerID}/cure", h.handleManualCure)
	})

	return r
}
