package store

import (
	"context"
	"testing"

	"github.com/codectx/codectx/internal/graph"
)

func TestMemoryStore_LoadReturnsNilBeforeAnySave(t *testing.T) {
	s := NewMemoryStore()
	g, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g != nil {
		t.Fatalf("expected nil graph before first save, got %+v", g)
	}
}

func TestMemoryStore_SaveThenLoadRoundTrips(t *testing.T) {
	s := NewMemoryStore()
	g := graph.New()
	g.UpsertNode(&graph.Node{ID: graph.FileNodeID("a.go"), Type: graph.NodeFile, Path: "a.go"})

	ctx := context.Background()
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", loaded.NodeCount())
	}
}

func TestMemoryStore_SaveDeepCopiesInput(t *testing.T) {
	s := NewMemoryStore()
	g := graph.New()
	n := &graph.Node{ID: graph.FileNodeID("a.go"), Type: graph.NodeFile, Path: "a.go"}
	g.UpsertNode(n)

	ctx := context.Background()
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	g.UpsertNode(&graph.Node{ID: graph.FileNodeID("b.go"), Type: graph.NodeFile, Path: "b.go"})

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.NodeCount() != 1 {
		t.Fatalf("expected stored snapshot unaffected by later mutation of caller's graph, got %d nodes", loaded.NodeCount())
	}
}

func TestMemoryStore_LoadReturnsFreshCloneEachTime(t *testing.T) {
	s := NewMemoryStore()
	g := graph.New()
	g.UpsertNode(&graph.Node{ID: graph.FileNodeID("a.go"), Type: graph.NodeFile, Path: "a.go"})

	ctx := context.Background()
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	first.UpsertNode(&graph.Node{ID: graph.FileNodeID("b.go"), Type: graph.NodeFile, Path: "b.go"})

	second, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if second.NodeCount() != 1 {
		t.Fatalf("expected mutation of one loaded clone to not affect the next, got %d nodes", second.NodeCount())
	}
}

func TestMemoryStore_ClearRemovesSnapshot(t *testing.T) {
	s := NewMemoryStore()
	g := graph.New()
	g.UpsertNode(&graph.Node{ID: graph.FileNodeID("a.go"), Type: graph.NodeFile, Path: "a.go"})

	ctx := context.Background()
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil graph after clear, got %+v", loaded)
	}
}
