package rerank

import (
	"context"
	"errors"
	"testing"
)

func TestRRF_CombinesBothSources(t *testing.T) {
	semantic := []Ranked{{ID: "a", Score: 0.9}, {ID: "b", Score: 0.8}}
	lexical := []Ranked{{ID: "b", Score: 5.0}, {ID: "c", Score: 3.0}}

	fused := RRF(semantic, lexical, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}
	if fused[0].ID != "b" {
		t.Fatalf("expected 'b' (present in both lists) to rank first, got %s", fused[0].ID)
	}
}

func TestRRF_TruncatesToTopK(t *testing.T) {
	semantic := []Ranked{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	fused := RRF(semantic, nil, 2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
}

func TestNormalize_ConstantValuesBecomeAllOnes(t *testing.T) {
	got := normalize([]float64{5, 5, 5})
	for _, v := range got {
		if v != 1 {
			t.Fatalf("expected constant input to normalize to all-ones, got %v", got)
		}
	}
}

func TestHybridRerank_WithoutCrossEncoder(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", SemanticRaw: 0.9, LexicalRaw: 1.0, Exported: true, Length: 10},
		{ID: "b", SemanticRaw: 0.1, LexicalRaw: 0.0, Exported: false, Length: 200},
	}
	out := HybridRerank(context.Background(), "query", candidates, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].Cross != 0 || out[1].Cross != 0 {
		t.Fatal("expected cross signal to be zero when no cross-encoder is provided")
	}
	if out[0].Score <= out[1].Score {
		t.Fatalf("expected candidate 'a' to outrank 'b', got scores %v", out)
	}
}

type fakeCrossEncoder struct {
	scores map[string]float64
	fail   bool
}

func (f *fakeCrossEncoder) Score(ctx context.Context, query, document string) (float64, error) {
	if f.fail {
		return 0, errors.New("boom")
	}
	return f.scores[document], nil
}

func TestHybridRerank_WithCrossEncoder(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", SemanticRaw: 0.5, LexicalRaw: 0.5, Content: "doc-a"},
		{ID: "b", SemanticRaw: 0.5, LexicalRaw: 0.5, Content: "doc-b"},
	}
	ce := &fakeCrossEncoder{scores: map[string]float64{"doc-a": 1.0, "doc-b": 0.0}}

	out := HybridRerank(context.Background(), "query", candidates, ce)
	if out[0].Score <= out[1].Score {
		t.Fatalf("expected cross-encoder signal to break the tie in favour of 'a', got %v", out)
	}
}

func TestHybridRerank_CrossEncoderFailureYieldsZero(t *testing.T) {
	candidates := []Candidate{{ID: "a", SemanticRaw: 0.5, LexicalRaw: 0.5, Content: "doc-a"}}
	ce := &fakeCrossEncoder{fail: true}

	out := HybridRerank(context.Background(), "query", candidates, ce)
	if out[0].Cross != 0 {
		t.Fatalf("expected failed cross-encoder call to contribute 0, got %v", out[0].Cross)
	}
}
