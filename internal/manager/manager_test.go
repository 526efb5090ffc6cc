package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codectx/codectx/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInitialize_BuildsAndPersists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n")

	st := store.NewMemoryStore()
	m := New(dir, st, nil, nil, Hooks{})

	if err := m.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if m.GetGraph().NodeCount() == 0 {
		t.Fatal("expected non-empty graph after initialize")
	}

	saved, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	if saved == nil || saved.NodeCount() != m.GetGraph().NodeCount() {
		t.Fatal("expected initialize to persist the built graph")
	}
}

func TestInitialize_UsesStoreWithoutForceRebuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n")

	st := store.NewMemoryStore()
	m1 := New(dir, st, nil, nil, Hooks{})
	if err := m1.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// Remove the source file; a second Manager reading from the store
	// shouldn't need to re-crawl it.
	if err := os.Remove(filepath.Join(dir, "a.go")); err != nil {
		t.Fatal(err)
	}

	m2 := New(dir, st, nil, nil, Hooks{})
	if err := m2.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize (from store): %v", err)
	}
	if m2.GetGraph().NodeCount() == 0 {
		t.Fatal("expected graph loaded from store to be non-empty")
	}
}

func TestRecordFileModification_OpensOverlayAndFiresHooks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n")

	var created, updated []string
	m := New(dir, store.NewMemoryStore(), nil, nil, Hooks{
		OnCreated: func(path string) { created = append(created, path) },
		OnUpdated: func(path string) { updated = append(updated, path) },
	})
	if err := m.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n\nfunc G() {}\n")
	if err := m.RecordFileModification(context.Background(), "a.go"); err != nil {
		t.Fatalf("RecordFileModification: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected one created hook call, got %d", len(created))
	}

	g := m.GetGraph()
	if g.NodeCount() == 0 {
		t.Fatal("expected overlay-applied graph to be non-empty")
	}

	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n\nfunc G() {}\n\nfunc H() {}\n")
	if err := m.RecordFileModification(context.Background(), "a.go"); err != nil {
		t.Fatalf("RecordFileModification (2nd): %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("expected one updated hook call, got %d", len(updated))
	}
}

func TestDiscardOverlay_RevertsToBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n")

	discarded := false
	m := New(dir, store.NewMemoryStore(), nil, nil, Hooks{
		OnDiscarded: func() { discarded = true },
	})
	if err := m.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	baseCount := m.GetGraph().NodeCount()

	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n\nfunc G() {}\n")
	if err := m.RecordFileModification(context.Background(), "a.go"); err != nil {
		t.Fatalf("RecordFileModification: %v", err)
	}

	m.DiscardOverlay()
	if !discarded {
		t.Fatal("expected OnDiscarded hook to fire")
	}
	if m.GetGraph().NodeCount() != baseCount {
		t.Fatalf("expected graph to revert to base (%d nodes), got %d", baseCount, m.GetGraph().NodeCount())
	}
}

func TestMergeOverlay_CommitsAndResets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n")

	var committedJSON []byte
	st := store.NewMemoryStore()
	m := New(dir, st, nil, nil, Hooks{
		OnCommitted: func(j []byte) { committedJSON = j },
	})
	if err := m.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n\nfunc G() {}\n")
	if err := m.RecordFileModification(context.Background(), "a.go"); err != nil {
		t.Fatalf("RecordFileModification: %v", err)
	}

	if err := m.MergeOverlay(context.Background()); err != nil {
		t.Fatalf("MergeOverlay: %v", err)
	}
	if len(committedJSON) == 0 {
		t.Fatal("expected overlay JSON to be captured on commit")
	}

	saved, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	if saved == nil || saved.NodeCount() != m.GetGraph().NodeCount() {
		t.Fatal("expected merge to persist the rebuilt graph")
	}
}

func TestClearStore_ResetsEverything(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nfunc F() {}\n")

	st := store.NewMemoryStore()
	m := New(dir, st, nil, nil, Hooks{})
	if err := m.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := m.ClearStore(context.Background()); err != nil {
		t.Fatalf("ClearStore: %v", err)
	}
	if m.GetGraph().NodeCount() != 0 {
		t.Fatal("expected empty graph after ClearStore")
	}
	saved, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	if saved != nil {
		t.Fatal("expected store to be cleared")
	}
}
