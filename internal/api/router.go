package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter registers all API endpoints.
func NewRouter(h *HandlerProvider) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.Post("/register", h.RegisterHandler)
		r.Post("/login", h.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/transactions", h.CreateTransactionHandler)
			r.Get("/transactions", h.HistoryHandler)
			r.Get("/transactions/{id}", h.GetTransactionHandler)
			r.Post("/transactions/{id}/pay", h.PayTransactionHandler)
			r.Post("/transactions/{id}/cancel", h.CancelTransactionHandler)

			r.Post("/recharge", h.RechargeHandler)
			r.Post("/wallet/empty", h.EmptyWalletHandler)
			r.Get("/profile", h.ProfileHandler)
		})
	})

	return r
}
