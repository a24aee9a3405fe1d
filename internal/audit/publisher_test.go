package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ryegate/pkg/domain"
	"ryegate/pkg/usdc"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// =============================================================================
// Audit Publisher Test Suite
// =============================================================================

type PublisherSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *PublisherSuite) TestEmit() {
	s.Run("stamps id and timestamp", func() {
		publisher := NewPublisher(s.store, discard())
		publisher.Emit(s.ctx, Event{
			Actor:  "0xissuer",
			Action: ActionIssue,
			Amount: usdc.FromDollars(1000),
		})

		events, err := s.store.All(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.NotEmpty(events[0].ID)
		s.False(events[0].Timestamp.IsZero())
		s.Equal(ActionIssue, events[0].Action)
	})

	s.Run("sink failure is swallowed", func() {
		publisher := NewPublisher(failingSink{}, discard())
		s.NotPanics(func() {
			publisher.Emit(s.ctx, Event{Actor: "0xissuer", Action: ActionTransfer})
		})
	})
}

func (s *PublisherSuite) TestWorker() {
	inbox := make(chan Event, 8)
	worker := NewWorker(s.store, inbox)
	publisher := NewPublisher(ChannelSink(inbox), discard())

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	for _, actor := range []domain.Address{"0xalice", "0xbob", "0xalice"} {
		publisher.Emit(s.ctx, Event{Actor: actor, Action: ActionClaim})
	}

	s.Eventually(func() bool {
		events, err := s.store.All(s.ctx)
		return err == nil && len(events) == 3
	}, waitFor, tick)

	byActor, err := s.store.ListByActor(s.ctx, "0xalice")
	s.NoError(err)
	s.Len(byActor, 2)

	cancel()
	s.True(errors.Is(<-done, context.Canceled))
}

type failingSink struct{}

func (failingSink) Append(context.Context, Event) error {
	return errors.New("sink down")
}
