package bm25

import "testing"

func TestTokenize_LowercasesSplitsAndFilters(t *testing.T) {
	got := Tokenize("The Quick_Fox jumps over a 2-legged dog!")
	want := map[string]bool{"quick_fox": true, "jumps": true, "over": true, "legged": true, "dog": true}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %v", len(want), got)
	}
	for _, tok := range got {
		if !want[tok] {
			t.Fatalf("unexpected token %q in %v", tok, got)
		}
	}
}

func TestSearch_RanksMoreRelevantDocumentHigher(t *testing.T) {
	idx := New()
	idx.AddDocument("auth", "authentication token validation for login handler")
	idx.AddDocument("render", "renders a button component in the ui tree")

	results := idx.Search("login authentication", 10)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].ID != "auth" {
		t.Fatalf("expected auth to rank first, got %s", results[0].ID)
	}
}

func TestSearch_EmptyIndexReturnsEmpty(t *testing.T) {
	idx := New()
	if got := idx.Search("anything", 5); got != nil {
		t.Fatalf("expected nil results on empty index, got %v", got)
	}
}

func TestSearch_OnlyPositiveScores(t *testing.T) {
	idx := New()
	idx.AddDocument("doc1", "completely unrelated content about gardening")

	results := idx.Search("database transaction", 5)
	if len(results) != 0 {
		t.Fatalf("expected no positive-score matches, got %v", results)
	}
}

func TestAddDocument_ReplacesPriorEntry(t *testing.T) {
	idx := New()
	idx.AddDocument("doc1", "token authentication")
	idx.AddDocument("doc1", "completely different content")

	if idx.Count() != 1 {
		t.Fatalf("expected replace to keep a single document, got %d", idx.Count())
	}
	if results := idx.Search("token authentication", 5); len(results) != 0 {
		t.Fatalf("expected replaced document to no longer match old text, got %v", results)
	}
}

func TestRemove_DropsDocument(t *testing.T) {
	idx := New()
	idx.AddDocument("doc1", "token authentication handler")
	idx.Remove("doc1")
	if idx.Count() != 0 {
		t.Fatal("expected document to be removed")
	}
}
