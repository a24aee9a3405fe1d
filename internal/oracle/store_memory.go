package oracle

import (
	"context"
	"sort"
	"sync"

	"ryegate/pkg/domain"
	"ryegate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[domain.Period]Report
	// latest tracks insertion order, not period order: "latest" means the
	// most recently pushed report, matching the admin surface.
	latest domain.Period
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[domain.Period]Report)}
}

func (s *InMemoryStore) Save(_ context.Context, report Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[report.Period]; exists {
		return sentinel.ErrConflict
	}
	s.reports[report.Period] = report
	s.latest = report.Period
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, period domain.Period) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[period]
	if !ok {
		return Report{}, sentinel.ErrNotFound
	}
	return report, nil
}

func (s *InMemoryStore) Latest(_ context.Context) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.reports) == 0 {
		return Report{}, sentinel.ErrNotFound
	}
	return s.reports[s.latest], nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reports := make([]Report, 0, len(s.reports))
	for _, r := range s.reports {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Period < reports[j].Period })
	return reports, nil
}
