package embed

import "context"

// NoopEmbedder returns an empty vector for every input. Used when
// EMBEDDINGS_DISABLED is set or the real embedder fails to initialize.
type NoopEmbedder struct{}

func (NoopEmbedder) Initialize(ctx context.Context) error { return nil }

func (NoopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{}, nil
}

func (NoopEmbedder) Dimension() int { return 0 }

// NoopCrossEncoder always scores 0 without making a call. The app wiring
// does not use it: with no cross-encoder configured it leaves the
// cross-encoder nil.
type NoopCrossEncoder struct{}

func (NoopCrossEncoder) Score(ctx context.Context, query, document string) (float64, error) {
	return 0, nil
}
