package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ryegate/internal/platform/middleware"
)

// NewRouter wires the full route table. Reads are open; every mutating route
// sits behind bearer auth, and the caller address from the token is the
// actor every service-level role check sees.
func NewRouter(h *Handler, validator middleware.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", h.handleStatus)

	r.Get("/roles/{role}", h.handleRoleMembers)
	r.Get("/kyc/{address}", h.handleGetKYC)
	r.Get("/oracle/reports", h.handleListReports)
	r.Get("/oracle/reports/latest", h.handleLatestReport)
	r.Get("/oracle/reports/{period}", h.handleGetReport)
	r.Get("/notes/balance/{address}", h.handleBalance)
	r.Get("/yield/pending/{address}", h.handlePendingYield)
	r.Get("/documents", h.handleListDocuments)
	r.Get("/documents/{name}", h.handleGetDocument)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))

		r.Post("/roles/grant", h.handleGrantRole)
		r.Post("/roles/revoke", h.handleRevokeRole)
		r.Post("/kyc/whitelist", h.handleSetWhitelist)
		r.Post("/kyc/revoke", h.handleRevokeKYC)
		r.Post("/oracle/reports", h.handlePushReport)
		r.Post("/oracle/relay", h.handleRelayPush)
		r.Post("/notes/issue", h.handleIssue)
		r.Post("/notes/transfer", h.handleTransfer)
		r.Post("/notes/redeem", h.handleRedeem)
		r.Post("/notes/pause", h.handlePause)
		r.Post("/notes/unpause", h.handleUnpause)
		r.Post("/yield/fund", h.handleFundPool)
		r.Post("/yield/distribute", h.handleDistribute)
		r.Post("/yield/claim", h.handleClaim)
		r.Post("/documents", h.handleSetDocument)
	})

	return r
}
