// Package manager implements the Graph Manager: the single writer that
// owns the base graph, an at-most-one overlay of uncommitted edits, and
// the persistence store. It plays an orchestrator role
// (crawl/parse/build/persist) but for a long-lived incremental session
// rather than a one-shot batch job.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/codectx/codectx/internal/builder"
	"github.com/codectx/codectx/internal/embed"
	"github.com/codectx/codectx/internal/graph"
	"github.com/codectx/codectx/internal/overlay"
	"github.com/codectx/codectx/internal/store"
)

// Hooks lets callers observe overlay lifecycle events. Every field is
// optional.
type Hooks struct {
	OnCreated   func(path string)
	OnUpdated   func(path string)
	OnCommitted func(overlayJSON []byte)
	OnDiscarded func()
}

// Manager is the Graph Manager. All exported methods are safe for
// concurrent use; RecordFileModification and MergeOverlay/DiscardOverlay
// take an internal lock, enforcing single-writer discipline.
type Manager struct {
	mu sync.Mutex

	rootPath string
	store    store.GraphStore
	embedder embed.Embedder
	cache    embed.Cache
	hooks    Hooks

	base       *graph.Graph
	ovl        *overlay.Overlay
	cachedView *graph.Graph
	overlaySeq int
}

// New constructs a Manager. embedder/cache may be nil; Build supplies its
// own defaults.
func New(rootPath string, st store.GraphStore, embedder embed.Embedder, cache embed.Cache, hooks Hooks) *Manager {
	return &Manager{
		rootPath: rootPath,
		store:    st,
		embedder: embedder,
		cache:    cache,
		hooks:    hooks,
		base:     graph.New(),
	}
}

// Initialize loads the base graph. When forceRebuild is false it tries
// the store first; on a miss (or when forced) it runs the Builder and
// persists the result. The overlay is always reset.
func (m *Manager) Initialize(ctx context.Context, forceRebuild bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !forceRebuild {
		g, err := m.store.Load(ctx)
		if err != nil {
			slog.Warn("manager: store load failed, rebuilding", "error", err)
		} else if g != nil {
			m.base = g
			m.resetOverlayLocked()
			return nil
		}
	}

	result, err := builder.Build(ctx, m.rootPath, builder.Options{Embedder: m.embedder, Cache: m.cache})
	if err != nil {
		return fmt.Errorf("manager: initialize: %w", err)
	}
	m.base = result.Graph
	if err := m.store.Save(ctx, m.base); err != nil {
		slog.Warn("manager: store save failed", "error", err)
	}
	m.resetOverlayLocked()
	return nil
}

// GetGraph returns the base graph when no overlay is open, otherwise a
// memoised overlay.Apply(base) — recomputed only the first time it's
// asked for after an overlay mutation.
func (m *Manager) GetGraph() *graph.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ovl.IsEmpty() {
		return m.base
	}
	if m.cachedView == nil {
		m.cachedView = m.ovl.Apply(m.base)
	}
	return m.cachedView
}

// RecordFileModification reparses a single file and layers the result
// atop the overlay, opening one if none exists. Prior operations for
// path are dropped first so repeated edits to the same file don't
// accumulate stale deltas.
func (m *Manager) RecordFileModification(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := m.ovl == nil
	if m.ovl == nil {
		m.overlaySeq++
		m.ovl = overlay.New(strconv.Itoa(m.overlaySeq), snapshotID(m.base))
	}
	m.ovl.ClearPath(path)

	for _, n := range m.base.GetNodesByPath(path) {
		m.ovl.Append(overlay.Operation{Type: overlay.OpRemove, NodeID: n.ID, Path: path})
	}

	ops, unresolved, err := builder.ParseFileForOverlay(m.rootPath, path, m.base)
	if err != nil {
		return fmt.Errorf("manager: recordFileModification(%s): %w", path, err)
	}
	for _, op := range ops {
		m.ovl.Append(op)
	}
	if len(unresolved) > 0 {
		slog.Debug("manager: unresolved cross-file references", "path", path, "count", len(unresolved))
	}

	m.cachedView = nil

	if created && m.hooks.OnCreated != nil {
		m.hooks.OnCreated(path)
	} else if !created && m.hooks.OnUpdated != nil {
		m.hooks.OnUpdated(path)
	}
	return nil
}

// MergeOverlay rebuilds the entire graph from source and replaces base:
// a fresh rebuild is the simplest convergence guarantee once an overlay
// has drifted from whatever else may have changed on disk.
func (m *Manager) MergeOverlay(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var overlayJSON []byte
	if !m.ovl.IsEmpty() {
		data, err := m.ovl.ToJSON()
		if err != nil {
			return fmt.Errorf("manager: encoding overlay: %w", err)
		}
		overlayJSON = data
	}

	result, err := builder.Build(ctx, m.rootPath, builder.Options{Embedder: m.embedder, Cache: m.cache})
	if err != nil {
		return fmt.Errorf("manager: mergeOverlay: %w", err)
	}
	m.base = result.Graph
	if err := m.store.Save(ctx, m.base); err != nil {
		slog.Warn("manager: store save failed", "error", err)
	}
	m.resetOverlayLocked()

	if m.hooks.OnCommitted != nil {
		m.hooks.OnCommitted(overlayJSON)
	}
	return nil
}

// DiscardOverlay drops any pending overlay without touching the base
// graph or the store.
func (m *Manager) DiscardOverlay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetOverlayLocked()
	if m.hooks.OnDiscarded != nil {
		m.hooks.OnDiscarded()
	}
}

// ClearStore wipes the persistence store and every in-memory state the
// Manager holds.
func (m *Manager) ClearStore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("manager: clearStore: %w", err)
	}
	m.base = graph.New()
	m.resetOverlayLocked()
	return nil
}

func (m *Manager) resetOverlayLocked() {
	m.ovl = nil
	m.cachedView = nil
}

// snapshotID gives the overlay something stable to record as its base
// anchor; node and edge counts are a cheap, deterministic-enough fingerprint since
// the base graph doesn't carry its own content hash.
func snapshotID(g *graph.Graph) string {
	return fmt.Sprintf("nodes-%d-edges-%d", g.NodeCount(), g.EdgeCount())
}
