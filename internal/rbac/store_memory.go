package rbac

import (
	"context"
	"sort"
	"sync"

	"ryegate/pkg/domain"
)

// InMemoryStore keeps role membership in process. Suitable for tests and the
// dev server; the postgres store is the durable twin.
type InMemoryStore struct {
	mu    sync.RWMutex
	roles map[Role]map[domain.Address]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{roles: make(map[Role]map[domain.Address]struct{})}
}

func (s *InMemoryStore) Add(_ context.Context, role Role, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.roles[role]
	if !ok {
		set = make(map[domain.Address]struct{})
		s.roles[role] = set
	}
	set[addr] = struct{}{}
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, role Role, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles[role], addr)
	return nil
}

func (s *InMemoryStore) Has(_ context.Context, role Role, addr domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[role][addr]
	return ok, nil
}

func (s *InMemoryStore) Members(_ context.Context, role Role) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]domain.Address, 0, len(s.roles[role]))
	for addr := range s.roles[role] {
		members = append(members, addr)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members, nil
}
