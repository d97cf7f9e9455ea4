package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sheets/internal/grid"
)

// MemoryStore is a volatile Store. Nothing is evicted and nothing survives
// the process.
type MemoryStore struct {
	mu     sync.RWMutex
	sheets map[string]grid.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: map[string]grid.Snapshot{}}
}

func (s *MemoryStore) Save(ctx context.Context, id string, data grid.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[id] = data.Clone()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (grid.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.sheets[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSheetNotFound)
	}
	return data.Clone(), nil
}

// IDs lists the stored sheet ids in sorted order.
func (s *MemoryStore) IDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sheets))
	for id := range s.sheets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
