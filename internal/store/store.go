// Package store implements the Graph Store contract: load() -> graph?,
// save(graph), clear(). The in-memory implementation is required;
// Postgres/pgvector is an optional durable backend.
package store

import (
	"context"

	"github.com/codectx/codectx/internal/graph"
)

// GraphStore persists a single named graph snapshot.
type GraphStore interface {
	// Load returns the stored graph, or nil if none has been saved.
	Load(ctx context.Context) (*graph.Graph, error)
	// Save stores a copy of g as the current snapshot (MemoryStore copies
	// via graph.Clone, which shares node attribute maps and embeddings).
	Save(ctx context.Context, g *graph.Graph) error
	// Clear removes the stored snapshot.
	Clear(ctx context.Context) error
}
