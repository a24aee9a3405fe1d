package oracle

import (
	"time"

	"ryegate/pkg/domain"
	"ryegate/pkg/usdc"
)

// Report is an attested, immutable record of financial performance for one
// period. Write-once per period: retroactive revenue manipulation is
// rejected at the storage layer.
type Report struct {
	Period           domain.Period  `json:"period"`
	GrossRevenue     usdc.Amount    `json:"gross_revenue"`
	OperatingCosts   usdc.Amount    `json:"operating_costs"`
	AdjustedEBITDA   usdc.Amount    `json:"adjusted_ebitda"`
	DistributeAmount usdc.Amount    `json:"distribute_amount"`
	PeriodStart      int64          `json:"period_start"`
	PeriodEnd        int64          `json:"period_end"`
	// EvidenceURI is a content-hash pointer (IPFS CID or similar) to the
	// underlying financial statement.
	EvidenceURI string         `json:"evidence_uri"`
	ReportedBy  domain.Address `json:"reported_by"`
	ReportedAt  time.Time      `json:"reported_at"`
}
