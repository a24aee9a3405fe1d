// Package relay carries revenue figures from the upstream financial API into
// the oracle. It owns all retry behavior: the oracle itself never retries,
// so a failed push here has provably not mutated ledger state.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"ryegate/internal/oracle"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/usdc"
)

// Payload is the upstream revenue document. Amounts are in dollars; dates
// are ISO (2026-01-01).
type Payload struct {
	GrossRevenue     float64 `json:"grossRevenue"`
	OperatingCosts   float64 `json:"operatingCosts"`
	AdjustedEBITDA   float64 `json:"adjustedEBITDA"`
	DistributeAmount float64 `json:"distributeAmount"`
	PeriodStart      string  `json:"periodStart"`
	PeriodEnd        string  `json:"periodEnd"`
	EvidenceURI      string  `json:"evidenceURI"`
}

// Config wires the relay.
type Config struct {
	Oracle *oracle.Service
	// Caller is the identity the push runs under; it must hold the oracle
	// role.
	Caller domain.Address
	// APIURL is the upstream revenue endpoint. Optional; PushPayload works
	// without it.
	APIURL string
	APIKey string
	// SlackWebhookURL receives best-effort outcome notifications.
	SlackWebhookURL string
	HTTPClient      *http.Client
	Logger          *slog.Logger
	// Backoff overrides the retry delays. Tests zero it.
	Backoff []time.Duration
}

type Relay struct {
	oracle  *oracle.Service
	caller  domain.Address
	apiURL  string
	apiKey  string
	slack   string
	client  *http.Client
	logger  *slog.Logger
	backoff []time.Duration
}

func New(cfg Config) *Relay {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = []time.Duration{time.Second, 3 * time.Second, 9 * time.Second}
	}
	return &Relay{
		oracle:  cfg.Oracle,
		caller:  cfg.Caller,
		apiURL:  cfg.APIURL,
		apiKey:  cfg.APIKey,
		slack:   cfg.SlackWebhookURL,
		client:  client,
		logger:  logger,
		backoff: backoff,
	}
}

// PushFromAPI fetches the upstream payload and pushes it.
func (r *Relay) PushFromAPI(ctx context.Context) (oracle.Report, error) {
	payload, err := r.fetch(ctx)
	if err != nil {
		r.notify(ctx, fmt.Sprintf("🚨 Oracle push failed: %v", err))
		return oracle.Report{}, err
	}
	return r.PushPayload(ctx, payload)
}

// PushPayload validates, converts, and pushes one payload with retry. The
// outcome notification is best-effort either way; a failed Slack post never
// rolls back a pushed report.
func (r *Relay) PushPayload(ctx context.Context, payload Payload) (oracle.Report, error) {
	req, err := convert(payload)
	if err != nil {
		r.notify(ctx, fmt.Sprintf("🚨 Oracle push failed: %v", err))
		return oracle.Report{}, err
	}

	var report oracle.Report
	for attempt := 0; ; attempt++ {
		report, err = r.oracle.PushReport(ctx, r.caller, req)
		if err == nil {
			break
		}
		if attempt >= len(r.backoff)-1 {
			r.notify(ctx, fmt.Sprintf("🚨 Oracle push failed: %v", err))
			return oracle.Report{}, err
		}
		delay := r.backoff[attempt]
		r.logger.WarnContext(ctx, "oracle push failed, retrying",
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err.Error(),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return oracle.Report{}, ctx.Err()
		}
	}

	r.notify(ctx, fmt.Sprintf("✅ Revenue reported: %s gross, %s EBITDA for %s",
		report.GrossRevenue.Format(), report.AdjustedEBITDA.Format(), report.Period.FormatQuarter()))
	return report, nil
}

// fetch pulls the payload from the upstream API.
func (r *Relay) fetch(ctx context.Context) (Payload, error) {
	if r.apiURL == "" {
		return Payload{}, dErrors.New(dErrors.CodeBadRequest, "no revenue API configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build revenue request: %w", err)
	}
	if r.apiKey != "" {
		httpReq.Header.Set("X-API-Key", r.apiKey)
	}
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return Payload{}, fmt.Errorf("revenue API fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("revenue API fetch failed: status %d", resp.StatusCode)
	}
	var payload Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Payload{}, fmt.Errorf("decode revenue payload: %w", err)
	}
	return payload, nil
}

// convert validates the payload and maps dollars and ISO dates onto the
// oracle's wire form. The reporting period is derived from the period start
// date.
func convert(payload Payload) (oracle.PushRequest, error) {
	if payload.GrossRevenue <= 0 || payload.OperatingCosts < 0 || payload.AdjustedEBITDA <= 0 ||
		payload.PeriodStart == "" || payload.PeriodEnd == "" {
		return oracle.PushRequest{}, dErrors.New(dErrors.CodeBadRequest,
			"missing required revenue fields: grossRevenue, operatingCosts, adjustedEBITDA, periodStart, periodEnd")
	}
	start, err := usdc.ParseISODate(payload.PeriodStart)
	if err != nil {
		return oracle.PushRequest{}, dErrors.New(dErrors.CodeBadRequest, "invalid date format for periodStart or periodEnd")
	}
	end, err := usdc.ParseISODate(payload.PeriodEnd)
	if err != nil {
		return oracle.PushRequest{}, dErrors.New(dErrors.CodeBadRequest, "invalid date format for periodStart or periodEnd")
	}

	startDate := time.Unix(start, 0).UTC()
	period := domain.NewPeriod(startDate.Year(), int(startDate.Month()-1)/3+1)

	return oracle.PushRequest{
		Period:           period,
		GrossRevenue:     dollarsToUnits(payload.GrossRevenue),
		OperatingCosts:   dollarsToUnits(payload.OperatingCosts),
		AdjustedEBITDA:   dollarsToUnits(payload.AdjustedEBITDA),
		DistributeAmount: dollarsToUnits(payload.DistributeAmount),
		PeriodStart:      start,
		PeriodEnd:        end,
		EvidenceURI:      payload.EvidenceURI,
	}, nil
}

func dollarsToUnits(dollars float64) usdc.Amount {
	return usdc.Amount(math.Floor(dollars * float64(usdc.Unit)))
}

// notify posts to the Slack webhook, if configured. Failures are logged and
// swallowed.
func (r *Relay) notify(ctx context.Context, message string) {
	if r.slack == "" {
		return
	}
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.slack, bytes.NewReader(body))
	if err != nil {
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(httpReq)
	if err != nil {
		r.logger.WarnContext(ctx, "slack notification failed", "error", err.Error())
		return
	}
	resp.Body.Close()
}
