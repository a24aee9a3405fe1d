package kyc

import (
	"context"
	"sync"

	"ryegate/pkg/domain"
	"ryegate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Address]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.Address]Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Address] = record
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, addr domain.Address) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[addr]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}
