package audit

import (
	"context"
	"sync"

	"ryegate/pkg/domain"
)

// InMemoryStore keeps events in process for tests and the dev server.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByActor returns the events emitted for one actor, oldest first.
func (s *InMemoryStore) ListByActor(_ context.Context, actor domain.Address) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Actor == actor {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every recorded event, oldest first.
func (s *InMemoryStore) All(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...), nil
}
