package rerank

import (
	"context"
	"math"
)

const (
	weightSemantic   = 0.5
	weightLexical    = 0.3
	weightStructural = 0.2
	weightCross      = 0.2

	structuralExportedWeight = 0.7
	structuralLocalityWeight = 0.3
)

// CrossEncoder scores a (query, document) pair in [0,1]. Implementations
// must be best-effort: Score errors are treated as a 0 contribution by
// HybridRerank rather than propagated.
type CrossEncoder interface {
	Score(ctx context.Context, query, document string) (float64, error)
}

// Candidate is one fused result going into the hybrid reranker.
type Candidate struct {
	ID          string
	SemanticRaw float64
	LexicalRaw  float64
	Exported    bool
	Length      int // line span, for the locality structural signal
	Content     string
}

// Reranked is one candidate after signal blending.
type Reranked struct {
	ID         string
	Score      float64
	Semantic   float64
	Lexical    float64
	Structural float64
	Cross      float64
}

// HybridRerank blends four normalised signals per candidate: semantic,
// lexical, structural, and (when ce is non-nil) cross-encoder. query is
// only used for the cross-encoder call.
func HybridRerank(ctx context.Context, query string, candidates []Candidate, ce CrossEncoder) []Reranked {
	if len(candidates) == 0 {
		return nil
	}

	semantic := normalize(extract(candidates, func(c Candidate) float64 { return c.SemanticRaw }))
	lexical := normalize(extract(candidates, func(c Candidate) float64 { return c.LexicalRaw }))
	structural := normalize(structuralSignals(candidates))

	var cross []float64
	useCross := ce != nil
	if useCross {
		raw := make([]float64, len(candidates))
		failed := make([]bool, len(candidates))
		for i, c := range candidates {
			s, err := ce.Score(ctx, query, c.Content)
			if err != nil {
				s = 0
				failed[i] = true
			}
			raw[i] = s
		}
		cross = normalize(raw)
		for i := range cross {
			if failed[i] {
				cross[i] = 0
			}
		}
	}

	wSem, wLex, wStruct, wCross := weightSemantic, weightLexical, weightStructural, 0.0
	if useCross {
		wCross = weightCross
		total := wSem + wLex + wStruct + wCross
		wSem, wLex, wStruct, wCross = wSem/total, wLex/total, wStruct/total, wCross/total
	}

	out := make([]Reranked, len(candidates))
	for i, c := range candidates {
		r := Reranked{
			ID:         c.ID,
			Semantic:   semantic[i],
			Lexical:    lexical[i],
			Structural: structural[i],
		}
		r.Score = wSem*semantic[i] + wLex*lexical[i] + wStruct*structural[i]
		if useCross {
			r.Cross = cross[i]
			r.Score += wCross * cross[i]
		}
		out[i] = r
	}
	return out
}

func extract(candidates []Candidate, f func(Candidate) float64) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = f(c)
	}
	return out
}

func structuralSignals(candidates []Candidate) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		exported := 0.0
		if c.Exported {
			exported = 1.0
		}
		length := c.Length
		if length < 1 {
			length = 1
		}
		locality := 1.0 / math.Log(float64(length)+1)
		out[i] = structuralExportedWeight*exported + structuralLocalityWeight*locality
	}
	return out
}

// normalize min-max scales values to [0,1]. A constant (or single-value)
// set normalises to all-ones rather than all-zeros.
func normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}
