package kyc

import (
	"context"

	"ryegate/pkg/domain"
)

// Store persists KYC records. Implementations return sentinel.ErrNotFound
// for unknown addresses.
type Store interface {
	Save(ctx context.Context, record Record) error
	Find(ctx context.Context, addr domain.Address) (Record, error)
}
