// Package rerank implements Reciprocal Rank Fusion and the hybrid
// reranker, hand-written with its own constants (k=60, default weights)
// since, like ann and bm25, fusion/reranking has no direct library
// analogue in the dependency ecosystem this repo otherwise draws from.
package rerank

import "sort"

const rrfK = 60

// Ranked is one entry in a ranked source list going into fusion.
type Ranked struct {
	ID    string
	Score float64 // the source's own raw score, kept for telemetry
}

// Fused is one fusion result, carrying both the combined score and each
// source's original (possibly absent) raw score.
type Fused struct {
	ID          string
	Score       float64
	SemanticRaw float64
	SemanticHit bool
	LexicalRaw  float64
	LexicalHit  bool
}

// RRF fuses two ranked lists (e.g. ANN and BM25 results) with constant
// k=60: each id appearing at 0-based rank r in a list contributes
// 1/(k+r+1). Output is sorted by fused score descending and truncated to
// topK.
func RRF(semantic, lexical []Ranked, topK int) []Fused {
	byID := make(map[string]*Fused)
	order := make([]string, 0, len(semantic)+len(lexical))

	get := func(id string) *Fused {
		if f, ok := byID[id]; ok {
			return f
		}
		f := &Fused{ID: id}
		byID[id] = f
		order = append(order, id)
		return f
	}

	for r, item := range semantic {
		f := get(item.ID)
		f.Score += 1.0 / float64(rrfK+r+1)
		f.SemanticRaw = item.Score
		f.SemanticHit = true
	}
	for r, item := range lexical {
		f := get(item.ID)
		f.Score += 1.0 / float64(rrfK+r+1)
		f.LexicalRaw = item.Score
		f.LexicalHit = true
	}

	out := make([]Fused, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
