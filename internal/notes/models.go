package notes

import (
	"math/big"
	"time"

	"ryegate/pkg/domain"
	"ryegate/pkg/usdc"
)

// Partition is a named sub-ledger with its own compliance policy. The
// partition set is fixed at construction and immutable afterwards.
type Partition struct {
	ID    domain.PartitionID
	Label string
	// RequiresAccreditation gates receipt of this partition on the KYC
	// accreditation flag.
	RequiresAccreditation bool
	// LockupDuration holds outbound transfers for this long after a holder
	// first enters the partition. Zero disables the lockup.
	LockupDuration time.Duration
}

// Default partition labels for the Reg D / Reg A+ dual offering.
const (
	LabelRegD     = "REG_D"
	LabelRegAPlus = "REG_A_PLUS"
)

// DefaultPartitions returns the standard dual-class policy: Reg D restricted
// to accredited investors with a 12-month lockup, Reg A+ open to retail with
// none.
func DefaultPartitions() []Partition {
	return []Partition{
		{
			ID:                    domain.NewPartitionID(LabelRegD),
			Label:                 LabelRegD,
			RequiresAccreditation: true,
			LockupDuration:        365 * 24 * time.Hour,
		},
		{
			ID:    domain.NewPartitionID(LabelRegAPlus),
			Label: LabelRegAPlus,
		},
	}
}

// RateScale is the fixed-point scale for per-token yield rates. 1e12 keeps
// six decimal places of precision on top of the 6-decimal unit scale.
const RateScale = 1_000_000_000_000

// Distribution records one period's yield event: the funded amount, the
// supply snapshot it was divided over, and the resulting per-token rate
// (floor division; the rounding residue stays in the pool).
type Distribution struct {
	Period domain.Period `json:"period"`
	Amount usdc.Amount   `json:"amount"`
	Supply uint64        `json:"supply"`
	// Rate is amount × RateScale / supply. Held as a big.Int because a tiny
	// supply against a large amount overflows 64 bits.
	Rate          *big.Int  `json:"-"`
	DistributedAt time.Time `json:"distributed_at"`
}

// holder is the per-address ledger state. Holders are created on first
// issuance and never deleted; balances may reach zero.
type holder struct {
	balances    map[domain.PartitionID]uint64
	lockupStart map[domain.PartitionID]time.Time
	// total caches the cross-partition balance so yield settlement never
	// iterates partitions.
	total uint64
	// pending is realized, claimable yield from settled distributions.
	pending usdc.Amount
	// cursor counts distributions already folded into pending. The ledger
	// settles a holder before every balance mutation, so between cursor
	// advances the holder's balance is constant - which is exactly what
	// makes the lazy fold equal to an eager per-distribution snapshot.
	cursor int
}

func newHolder() *holder {
	return &holder{
		balances:    make(map[domain.PartitionID]uint64),
		lockupStart: make(map[domain.PartitionID]time.Time),
	}
}
