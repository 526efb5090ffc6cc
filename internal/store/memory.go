package store

import (
	"context"
	"sync"

	"github.com/codectx/codectx/internal/graph"
)

// MemoryStore is the default GraphStore: a process-local snapshot guarded
// by a mutex. Save stores a clone and Load returns a fresh clone (see
// graph.Clone), so nodes and edges a caller adds to or removes from its
// graph never reach the stored snapshot. Node attribute maps and
// embedding slices are shared with the clones, not copied.
type MemoryStore struct {
	mu  sync.RWMutex
	snp *graph.Graph
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*graph.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snp == nil {
		return nil, nil
	}
	return s.snp.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snp = g.Clone()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snp = nil
	return nil
}
