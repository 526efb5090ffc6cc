package embed

import (
	"path/filepath"
	"testing"
)

func TestMemoryCache_PutGet(t *testing.T) {
	c := NewMemoryCache()
	if _, ok := c.Get("hello"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put("hello", []float32{0.1, 0.2, 0.3})
	v, ok := c.Get("hello")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(v) != 3 || v[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", v)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestMemoryCache_DistinctTextsDistinctKeys(t *testing.T) {
	c := NewMemoryCache()
	c.Put("func A()", []float32{1})
	c.Put("func B()", []float32{2})
	a, _ := c.Get("func A()")
	b, _ := c.Get("func B()")
	if a[0] == b[0] {
		t.Fatal("expected distinct cache entries for distinct texts")
	}
}

func TestBoltCache_PutGetFlushClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.db")

	c, err := NewBoltCache(path)
	if err != nil {
		t.Fatalf("NewBoltCache: %v", err)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	vector := []float32{0.5, -0.25, 1.0, 0.0}
	c.Put("some source text", vector)

	got, ok := c.Get("some source text")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != len(vector) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(vector))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Fatalf("index %d: got %f want %f", i, got[i], vector[i])
		}
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestBoltCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.db")

	c1, err := NewBoltCache(path)
	if err != nil {
		t.Fatalf("NewBoltCache: %v", err)
	}
	c1.Put("persisted text", []float32{9, 9, 9})
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := NewBoltCache(path)
	if err != nil {
		t.Fatalf("reopen NewBoltCache: %v", err)
	}
	defer c2.Close()

	got, ok := c2.Get("persisted text")
	if !ok {
		t.Fatal("expected cache entry to survive reopen")
	}
	if got[0] != 9 {
		t.Fatalf("unexpected vector after reopen: %v", got)
	}
}

func TestEncodeDecodeVectorRoundTrip(t *testing.T) {
	v := []float32{0, 1, -1, 3.14159, -0.0001}
	buf := encodeVector(v)
	got := decodeVector(buf)
	if len(got) != len(v) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(v))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Fatalf("index %d: got %f want %f", i, got[i], v[i])
		}
	}
}
