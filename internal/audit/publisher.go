// Package audit captures the append-only trail of engine operations. Emission
// is best-effort: a failed emit is logged and never rolls back the operation
// that produced it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sink receives committed events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher stamps and forwards events to a sink.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
}

func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{sink: sink, logger: logger}
}

// Emit stamps the event and hands it to the sink. Errors are logged, not
// returned: the engine operation has already committed.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.sink.Append(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"actor", event.Actor.String(),
			"error", err.Error(),
		)
	}
}
