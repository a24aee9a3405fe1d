// Package httptransport is the admin/investor API. Handlers stay thin:
// decode, delegate to a service, encode. All policy lives behind the
// service boundary.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ryegate/internal/docs"
	"ryegate/internal/kyc"
	"ryegate/internal/notes"
	"ryegate/internal/oracle"
	"ryegate/internal/rbac"
	"ryegate/internal/relay"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/requestcontext"
	"ryegate/pkg/usdc"
)

type Handler struct {
	kyc    *kyc.Service
	oracle *oracle.Service
	docs   *docs.Service
	ledger *notes.Ledger
	roles  *rbac.Service
	relay  *relay.Relay
	logger *slog.Logger
}

// NewHandler builds the handler. relaySvc may be nil when no upstream revenue
// API is configured; the relay route then rejects with BadRequest.
func NewHandler(kycSvc *kyc.Service, oracleSvc *oracle.Service, docsSvc *docs.Service, ledger *notes.Ledger, roles *rbac.Service, relaySvc *relay.Relay, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{kyc: kycSvc, oracle: oracleSvc, docs: docsSvc, ledger: ledger, roles: roles, relay: relaySvc, logger: logger}
}

// =============================================================================
// Roles
// =============================================================================

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	if err := h.roles.Grant(r.Context(), caller, role, domain.NewAddress(req.Address)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": string(role), "address": req.Address, "status": "granted"})
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	if err := h.roles.Revoke(r.Context(), caller, role, domain.NewAddress(req.Address)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": string(role), "address": req.Address, "status": "revoked"})
}

func (h *Handler) handleRoleMembers(w http.ResponseWriter, r *http.Request) {
	role, err := rbac.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, err)
		return
	}
	members, err := h.roles.Members(r.Context(), role)
	if err != nil {
		writeError(w, err)
		return
	}
	if members == nil {
		members = []domain.Address{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"role": string(role), "members": members})
}

// =============================================================================
// KYC
// =============================================================================

func (h *Handler) handleSetWhitelist(w http.ResponseWriter, r *http.Request) {
	var req whitelistRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	expiry, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	record, err := h.kyc.SetWhitelist(r.Context(), caller, domain.NewAddress(req.Address), req.Accredited, expiry, req.KYCHash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleRevokeKYC(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	if err := h.kyc.Revoke(r.Context(), caller, domain.NewAddress(req.Address)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *Handler) handleGetKYC(w http.ResponseWriter, r *http.Request) {
	addr := domain.NewAddress(chi.URLParam(r, "address"))
	record, err := h.kyc.Get(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// =============================================================================
// Oracle
// =============================================================================

func (h *Handler) handlePushReport(w http.ResponseWriter, r *http.Request) {
	var req pushReportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	report, err := h.oracle.PushReport(r.Context(), caller, oracle.PushRequest{
		Period:           req.Period,
		GrossRevenue:     usdc.Amount(req.GrossRevenue),
		OperatingCosts:   usdc.Amount(req.OperatingCosts),
		AdjustedEBITDA:   usdc.Amount(req.AdjustedEBITDA),
		DistributeAmount: usdc.Amount(req.DistributeAmount),
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		EvidenceURI:      req.EvidenceURI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	period, err := domain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid period"))
		return
	}
	report, err := h.oracle.GetReport(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.oracle.LatestReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.oracle.ListReports(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleRelayPush(w http.ResponseWriter, r *http.Request) {
	if h.relay == nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "no revenue API configured"))
		return
	}
	report, err := h.relay.PushFromAPI(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// =============================================================================
// Notes
// =============================================================================

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	partition, err := parsePartition(req.Partition)
	if err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	if err := h.ledger.Issue(r.Context(), caller, partition, domain.NewAddress(req.To), req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "issued"})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	partition, err := parsePartition(req.Partition)
	if err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	from := domain.NewAddress(req.From)
	if from.IsZero() {
		from = caller
	}
	if err := h.ledger.Transfer(r.Context(), caller, partition, from, domain.NewAddress(req.To), req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (h *Handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	partition, err := parsePartition(req.Partition)
	if err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	if err := h.ledger.Redeem(r.Context(), caller, partition, domain.NewAddress(req.Holder), req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "redeemed"})
}

type partitionBalance struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Balance uint64 `json:"balance"`
}

type balanceResponse struct {
	Address      string             `json:"address"`
	Total        uint64             `json:"total"`
	Partitions   []partitionBalance `json:"partitions"`
	PendingYield uint64             `json:"pending_yield"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr := domain.NewAddress(chi.URLParam(r, "address"))
	resp := balanceResponse{
		Address:      addr.String(),
		Total:        h.ledger.BalanceOf(addr),
		Partitions:   []partitionBalance{},
		PendingYield: uint64(h.ledger.PendingYield(addr)),
	}
	for _, part := range h.ledger.Partitions() {
		resp.Partitions = append(resp.Partitions, partitionBalance{
			ID:      part.ID.String(),
			Label:   part.Label,
			Balance: h.ledger.BalanceOfByPartition(part.ID, addr),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.Caller(r.Context())
	if err := h.ledger.Pause(r.Context(), caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (h *Handler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.Caller(r.Context())
	if err := h.ledger.Unpause(r.Context(), caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

// =============================================================================
// Yield
// =============================================================================

func (h *Handler) handleFundPool(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	if err := h.ledger.FundPool(r.Context(), caller, usdc.Amount(req.Amount)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pool_balance": uint64(h.ledger.PoolBalance()),
	})
}

func (h *Handler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	if err := h.ledger.Distribute(r.Context(), caller, req.Period); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":      req.Period,
		"outstanding": uint64(h.ledger.Outstanding()),
	})
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.Caller(r.Context())
	paid, err := h.ledger.ClaimYield(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"claimed":           uint64(paid),
		"claimed_formatted": paid.Format(),
	})
}

func (h *Handler) handlePendingYield(w http.ResponseWriter, r *http.Request) {
	addr := domain.NewAddress(chi.URLParam(r, "address"))
	pending := h.ledger.PendingYield(addr)
	writeJSON(w, http.StatusOK, map[string]any{
		"address":           addr.String(),
		"pending":           uint64(pending),
		"pending_formatted": pending.Format(),
	})
}

// =============================================================================
// Documents
// =============================================================================

func (h *Handler) handleSetDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller := requestcontext.Caller(r.Context())
	doc, err := h.docs.SetDocument(r.Context(), caller, req.Name, req.URI, req.Hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.GetDocument(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := h.docs.AllDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []docs.Document{}
	}
	writeJSON(w, http.StatusOK, list)
}

// =============================================================================
// Status
// =============================================================================

type statusResponse struct {
	Paused        bool   `json:"paused"`
	TotalSupply   uint64 `json:"total_supply"`
	CurrentPeriod string `json:"current_period"`
	PoolBalance   string `json:"pool_balance"`
	Outstanding   string `json:"outstanding"`
	LatestReport  any    `json:"latest_report,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Paused:        h.ledger.Paused(),
		TotalSupply:   h.ledger.TotalSupply(),
		CurrentPeriod: h.ledger.CurrentPeriod().FormatQuarter(),
		PoolBalance:   h.ledger.PoolBalance().Format(),
		Outstanding:   h.ledger.Outstanding().Format(),
	}
	if report, err := h.oracle.LatestReport(r.Context()); err == nil {
		resp.LatestReport = map[string]any{
			"period":            report.Period.FormatQuarter(),
			"gross_revenue":     report.GrossRevenue.Format(),
			"adjusted_ebitda":   report.AdjustedEBITDA.Format(),
			"distribute_amount": report.DistributeAmount.Format(),
			"period_start":      usdc.FormatUnix(report.PeriodStart),
			"period_end":        usdc.FormatUnix(report.PeriodEnd),
			"evidence_uri":      report.EvidenceURI,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
