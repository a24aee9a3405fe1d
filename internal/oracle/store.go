package oracle

import (
	"context"

	"ryegate/pkg/domain"
)

// Store persists revenue reports. Save must be write-once per period and
// return sentinel.ErrConflict on a duplicate; Find returns
// sentinel.ErrNotFound for unknown periods; Latest returns
// sentinel.ErrNotFound when no report has ever been pushed.
type Store interface {
	Save(ctx context.Context, report Report) error
	Find(ctx context.Context, period domain.Period) (Report, error)
	Latest(ctx context.Context) (Report, error)
	List(ctx context.Context) ([]Report, error)
}
