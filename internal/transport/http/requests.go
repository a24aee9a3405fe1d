package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
)

// Amounts cross the wire in base units (1e-6 dollars); the CLI and relay do
// dollar conversion on their side. Partitions are accepted as labels
// ("REG_D") or 0x-prefixed 32-byte hex IDs.

type whitelistRequest struct {
	Address    string `json:"address"`
	Accredited bool   `json:"accredited"`
	// ExpiresAt is RFC3339; empty means the status never ages out.
	ExpiresAt string `json:"expires_at,omitempty"`
	KYCHash   string `json:"kyc_hash,omitempty"`
}

type roleRequest struct {
	Role    string `json:"role"`
	Address string `json:"address"`
}

type revokeRequest struct {
	Address string `json:"address"`
}

type pushReportRequest struct {
	Period           domain.Period `json:"period"`
	GrossRevenue     uint64        `json:"gross_revenue"`
	OperatingCosts   uint64        `json:"operating_costs"`
	AdjustedEBITDA   uint64        `json:"adjusted_ebitda"`
	DistributeAmount uint64        `json:"distribute_amount"`
	PeriodStart      int64         `json:"period_start"`
	PeriodEnd        int64         `json:"period_end"`
	EvidenceURI      string        `json:"evidence_uri"`
}

type issueRequest struct {
	Partition string `json:"partition"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
}

type transferRequest struct {
	Partition string `json:"partition"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
}

type redeemRequest struct {
	Partition string `json:"partition"`
	Holder    string `json:"holder"`
	Amount    uint64 `json:"amount"`
}

type fundRequest struct {
	Amount uint64 `json:"amount"`
}

type distributeRequest struct {
	Period domain.Period `json:"period"`
}

type documentRequest struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
	Hash string `json:"hash,omitempty"`
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

func parsePartition(s string) (domain.PartitionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.PartitionID{}, dErrors.New(dErrors.CodeBadRequest, "partition is required")
	}
	if strings.HasPrefix(s, "0x") {
		id, err := domain.ParsePartitionID(s)
		if err != nil {
			return domain.PartitionID{}, dErrors.New(dErrors.CodeBadRequest, "invalid partition id")
		}
		return id, nil
	}
	return domain.NewPartitionID(s), nil
}

func parseExpiry(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "expires_at must be RFC3339")
	}
	return t, nil
}
