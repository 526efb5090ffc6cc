package builder

import (
	"context"
	"fmt"

	"github.com/codectx/codectx/internal/embed"
	"github.com/codectx/codectx/internal/graph"
)

// embedGraph fills in Embedding for every non-file node, using the cache
// (keyed by each node's embedding text) to skip nodes whose text was
// already embedded in a prior run and batching cache misses through EmbedBatch when the embedder
// supports it.
func embedGraph(ctx context.Context, g *graph.Graph, embedder embed.Embedder, cache embed.Cache) error {
	if embedder.Dimension() == 0 {
		return nil // NoopEmbedder: nothing to do
	}

	nodes := g.GetAllNodes()

	type pending struct {
		node *graph.Node
		text string
	}
	var misses []pending

	for _, n := range nodes {
		if n.Type == graph.NodeFile {
			continue
		}
		text, _ := n.Attributes[graph.AttrEmbeddingText].(string)
		if text == "" {
			continue
		}
		if v, ok := cache.Get(text); ok {
			n.Embedding = v
			g.UpsertNode(n)
			continue
		}
		misses = append(misses, pending{node: n, text: text})
	}

	if len(misses) == 0 {
		return nil
	}

	if batcher, ok := embedder.(interface {
		EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	}); ok {
		texts := make([]string, len(misses))
		for i, p := range misses {
			texts[i] = p.text
		}
		vectors, err := batcher.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("builder: batch embedding: %w", err)
		}
		for i, p := range misses {
			if i >= len(vectors) {
				break
			}
			p.node.Embedding = vectors[i]
			cache.Put(p.text, vectors[i])
			g.UpsertNode(p.node)
		}
		return nil
	}

	for _, p := range misses {
		v, err := embedder.Embed(ctx, p.text)
		if err != nil {
			return fmt.Errorf("builder: embedding %s: %w", p.node.ID, err)
		}
		p.node.Embedding = v
		cache.Put(p.text, v)
		g.UpsertNode(p.node)
	}
	return nil
}
