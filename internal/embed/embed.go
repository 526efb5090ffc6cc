// Package embed implements the Embedder and CrossEncoder external
// collaborator contracts, built around the OpenAI client.
package embed

import "context"

// Embedder produces a fixed-dimension, normalized dense vector for text.
// embed must be deterministic for equal inputs within a process.
type Embedder interface {
	Initialize(ctx context.Context) error
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// CrossEncoder scores a (query, document) pair jointly. Failures are
// best-effort: callers treat an error as a score of 0 and never
// propagate it.
type CrossEncoder interface {
	Score(ctx context.Context, query, document string) (float64, error)
}
