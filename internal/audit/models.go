package audit

import (
	"time"

	"ryegate/pkg/domain"
	"ryegate/pkg/usdc"
)

// Action labels the engine operation an event records.
type Action string

const (
	ActionIssue        Action = "issue"
	ActionTransfer     Action = "transfer"
	ActionRedeem       Action = "redeem"
	ActionPause        Action = "pause"
	ActionUnpause      Action = "unpause"
	ActionFundPool     Action = "fund_pool"
	ActionDistribute   Action = "distribute"
	ActionClaim        Action = "claim_yield"
	ActionSetWhitelist Action = "set_whitelist"
	ActionRevokeKYC    Action = "revoke_kyc"
	ActionPushReport   Action = "push_report"
)

// Event is emitted from engine operations after they commit. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     domain.Address `json:"actor"`
	Action    Action         `json:"action"`
	Subject   domain.Address `json:"subject,omitempty"`
	Partition string         `json:"partition,omitempty"`
	Amount    usdc.Amount    `json:"amount,omitempty"`
	Period    domain.Period  `json:"period,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}
