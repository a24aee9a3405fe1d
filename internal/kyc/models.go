package kyc

import (
	"time"

	"ryegate/pkg/domain"
)

// Record is the registry entry for one address. Records are upserted by the
// compliance role and never physically deleted: revocation flips the
// whitelist flag so the audit history survives.
type Record struct {
	Address     domain.Address `json:"address"`
	Whitelisted bool           `json:"whitelisted"`
	Accredited  bool           `json:"accredited"`
	// ExpiresAt bounds the whitelist status. Zero means never expires.
	// Accreditation carries no expiry; only the whitelist flag ages out.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	// KYCHash points at the off-ledger verification evidence.
	KYCHash   string    `json:"kyc_hash,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveWhitelisted reports whether the record passes the whitelist check
// at the given instant. Expiry is evaluated on read so no sweeper job is
// needed.
func (r Record) EffectiveWhitelisted(now time.Time) bool {
	if !r.Whitelisted {
		return false
	}
	return r.ExpiresAt.IsZero() || now.Before(r.ExpiresAt)
}
