package embed

import (
	"context"
	"math"
	"testing"
)

func TestNoopEmbedder(t *testing.T) {
	e := NoopEmbedder{}
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	v, err := e.Embed(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 0 {
		t.Fatalf("expected empty vector, got %v", v)
	}
	if e.Dimension() != 0 {
		t.Fatalf("expected dimension 0, got %d", e.Dimension())
	}
}

func TestNoopCrossEncoder(t *testing.T) {
	c := NoopCrossEncoder{}
	score, err := c.Score(context.Background(), "q", "d")
	if err != nil || score != 0 {
		t.Fatalf("expected (0, nil), got (%v, %v)", score, err)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sumSq)-1.0) > 1e-6 {
		t.Fatalf("expected unit length, got %f", math.Sqrt(sumSq))
	}
}

func TestNormalize_EmptyAndZero(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Fatalf("expected empty result for nil input, got %v", got)
	}
	zero := []float32{0, 0, 0}
	if got := Normalize(zero); got[0] != 0 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("expected zero vector unchanged, got %v", got)
	}
}

func TestCosineSimilarity_Identical(t *testing.T) {
	a := Normalize([]float32{1, 2, 3})
	sim := CosineSimilarity(a, a)
	if math.Abs(sim-1.0) > 1e-6 {
		t.Fatalf("expected similarity ~1.0, got %f", sim)
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(sim) > 1e-9 {
		t.Fatalf("expected similarity 0, got %f", sim)
	}
}

func TestCosineSimilarity_MismatchedLengths(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	if sim != 0.0 {
		t.Fatalf("expected 0.0 on length mismatch, got %f", sim)
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-0.5: 0, 0.3: 0.3, 1.5: 1}
	for in, want := range cases {
		if got := clamp01(in); got != want {
			t.Fatalf("clamp01(%f) = %f, want %f", in, got, want)
		}
	}
}
