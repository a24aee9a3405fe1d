package docs

import (
	"context"
	"sort"
	"sync"

	"ryegate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string]Document)}
}

func (s *InMemoryStore) Save(_ context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Name] = doc
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, name string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	if !ok {
		return Document{}, sentinel.ErrNotFound
	}
	return doc, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
