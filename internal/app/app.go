// Package app wires the config, embedding backend, cache, graph store,
// manager, and pipeline into one set of collaborators shared by the CLI,
// HTTP API, and MCP server: an optional pgx pool (opened only when
// Postgres is reachable) and an optional OpenAI client, built once at
// process startup and threaded into each subcommand.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codectx/codectx/internal/config"
	"github.com/codectx/codectx/internal/db"
	"github.com/codectx/codectx/internal/embed"
	"github.com/codectx/codectx/internal/manager"
	"github.com/codectx/codectx/internal/pipeline"
	"github.com/codectx/codectx/internal/rerank"
	"github.com/codectx/codectx/internal/store"
)

// App bundles the long-lived collaborators one process needs.
type App struct {
	Config       *config.Config
	Store        store.GraphStore
	Embedder     embed.Embedder
	CrossEncoder rerank.CrossEncoder
	Cache        embed.Cache
	Manager      *manager.Manager
	Pipeline     *pipeline.Pipeline

	pool *pgxpool.Pool
}

// New builds the collaborator graph for rootPath. When cfg.DatabaseURL is
// reachable it uses the Postgres graph store; otherwise it degrades to
// the in-memory store.
func New(ctx context.Context, rootPath string, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if !cfg.EmbeddingsDisabled && cfg.OpenAIAPIKey != "" {
		a.Embedder = embed.NewOpenAIEmbedder(cfg.OpenAIAPIKey)
		if cfg.CrossEncoderEnabled {
			a.CrossEncoder = embed.NewOpenAICrossEncoder(cfg.OpenAIAPIKey, cfg.ChatModel)
		}
		cache, err := newCache(cfg)
		if err != nil {
			cache = embed.NewMemoryCache()
		}
		a.Cache = cache
	}

	gs, pool, err := newStore(ctx, cfg, a.Embedder)
	if err != nil {
		return nil, fmt.Errorf("app: graph store: %w", err)
	}
	a.Store = gs
	a.pool = pool

	a.Manager = manager.New(rootPath, a.Store, a.Embedder, a.Cache, manager.Hooks{})
	a.Pipeline = pipeline.New(a.Manager, a.Embedder, a.CrossEncoder)

	return a, nil
}

// Close releases the Postgres pool, if one was opened.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Pool returns the Postgres connection pool, or nil when the graph store
// is in-memory.
func (a *App) Pool() *pgxpool.Pool {
	return a.pool
}

func newStore(ctx context.Context, cfg *config.Config, embedder embed.Embedder) (store.GraphStore, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemoryStore(), nil, nil
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		// ResourceUnavailable: degrade to memory rather than fail startup.
		return store.NewMemoryStore(), nil, nil
	}

	dimension := 0
	if embedder != nil {
		dimension = embedder.Dimension()
	}
	pgStore, err := store.NewPostgresStore(ctx, pool, dimension)
	if err != nil {
		pool.Close()
		return store.NewMemoryStore(), nil, nil
	}
	return pgStore, pool, nil
}

func newCache(cfg *config.Config) (embed.Cache, error) {
	dir := cfg.ModelCacheDir
	if dir == "" {
		home := cfg.HomeDirOverride
		if home == "" {
			h, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			home = h
		}
		dir = filepath.Join(home, ".codectx", "cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return embed.NewBoltCache(filepath.Join(dir, "embeddings.db"))
}
