package ledger

import (
	"context"
	"sync"

	"github.com/pario-ai/aigateway/pkg/models"
)

// MemoryStore keeps quota documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []models.Quota
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, q models.Quota) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, q)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, f Filter) ([]models.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Quota
	for _, q := range s.docs {
		if f.Match(q) {
			out = append(out, q)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *MemoryStore) FindOneAndUpdate(_ context.Context, f Filter, u Update) (*models.Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := -1
	for i := range s.docs {
		if !f.Match(s.docs[i]) {
			continue
		}
		if first < 0 || s.docs[i].CreatedAt.Before(s.docs[first].CreatedAt) {
			first = i
		}
	}
	if first < 0 {
		return nil, nil
	}
	u.Apply(&s.docs[first])
	q := s.docs[first]
	return &q, nil
}

func (s *MemoryStore) UpdateMany(_ context.Context, f Filter, u Update) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.docs {
		if f.Match(s.docs[i]) {
			u.Apply(&s.docs[i])
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }
