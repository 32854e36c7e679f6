package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fastprodman/drawengine/internal/metrics"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(svc Services) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/user/{userId}/balance", h.GetBalanceHandler)
	r.Post("/user/{userId}/transaction", h.ProcessTransactionHandler)
	r.Get("/user/{userId}/transactions", h.TransactionHistoryHandler)

	r.Route("/games/{game}/{duration}", func(r chi.Router) {
		r.Post("/wagers", h.PlaceWagerHandler)
		r.Get("/periods/current", h.CurrentPeriodHandler)
		r.Get("/results/last", h.LastResultHandler)
		r.Get("/results", h.HistoryHandler)
	})

	r.Get("/periods/{periodId}/verification", h.VerificationHandler)
	r.Post("/admin/periods/{periodId}/override", h.OverrideHandler)

	return r
}
