package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/codectx/codectx/internal/graph"
)

// PostgresStore persists a single graph snapshot across a fixed pair of
// tables, using a pgx transaction and pgvector.NewVector for the
// embedding column. It holds exactly one snapshot per pool, matching the
// Graph Manager's single base-graph model — durability is an optional
// backend, not a multi-tenant index.
type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPostgresStore ensures the backing tables exist. dimension is the
// embedder's vector width; pass 0 when embeddings are disabled, which
// stores embeddings as NULL instead of a fixed-width vector column.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, dimension int) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool, dimension: dimension}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	vecType := "vector"
	if s.dimension > 0 {
		vecType = fmt.Sprintf("vector(%d)", s.dimension)
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS graph_nodes (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			name        TEXT NOT NULL,
			path        TEXT NOT NULL,
			content     TEXT NOT NULL,
			start_line  INT NOT NULL,
			end_line    INT NOT NULL,
			embedding   %s,
			attributes  JSONB
		);
		CREATE INDEX IF NOT EXISTS graph_nodes_path_idx ON graph_nodes (path);
		CREATE TABLE IF NOT EXISTS graph_edges (
			id          TEXT PRIMARY KEY,
			from_id     TEXT NOT NULL,
			to_id       TEXT NOT NULL,
			type        TEXT NOT NULL,
			attributes  JSONB
		);
		CREATE INDEX IF NOT EXISTS graph_edges_from_idx ON graph_edges (from_id);
	`, vecType))
	if err != nil {
		return fmt.Errorf("store: migrating schema: %w", err)
	}
	return nil
}

// Load reads every node and edge back into a fresh graph.Graph. Returns
// (nil, nil) when the tables are empty, matching MemoryStore's no-snapshot
// contract.
func (s *PostgresStore) Load(ctx context.Context) (*graph.Graph, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, type, name, path, content, start_line, end_line, embedding, attributes FROM graph_nodes`)
	if err != nil {
		return nil, fmt.Errorf("store: querying nodes: %w", err)
	}
	defer rows.Close()

	g := graph.New()
	count := 0
	for rows.Next() {
		var (
			id, typ, name, path, content string
			startLine, endLine           int
			vec                          *pgvector.Vector
			attrsRaw                     []byte
		)
		if err := rows.Scan(&id, &typ, &name, &path, &content, &startLine, &endLine, &vec, &attrsRaw); err != nil {
			return nil, fmt.Errorf("store: scanning node: %w", err)
		}
		var attrs map[string]any
		if len(attrsRaw) > 0 {
			if err := json.Unmarshal(attrsRaw, &attrs); err != nil {
				return nil, fmt.Errorf("store: decoding node attributes: %w", err)
			}
		}
		n := &graph.Node{
			ID: id, Type: graph.NodeType(typ), Name: name, Path: path, Content: content,
			StartLine: startLine, EndLine: endLine, Attributes: attrs,
		}
		if vec != nil {
			n.Embedding = vec.Slice()
		}
		g.UpsertNode(n)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	edgeRows, err := s.pool.Query(ctx, `SELECT id, from_id, to_id, type, attributes FROM graph_edges`)
	if err != nil {
		return nil, fmt.Errorf("store: querying edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var id, fromID, toID, typ string
		var attrsRaw []byte
		if err := edgeRows.Scan(&id, &fromID, &toID, &typ, &attrsRaw); err != nil {
			return nil, fmt.Errorf("store: scanning edge: %w", err)
		}
		var attrs map[string]any
		if len(attrsRaw) > 0 {
			if err := json.Unmarshal(attrsRaw, &attrs); err != nil {
				return nil, fmt.Errorf("store: decoding edge attributes: %w", err)
			}
		}
		_ = g.AddEdge(&graph.Edge{ID: id, FromID: fromID, ToID: toID, Type: graph.EdgeType(typ), Attributes: attrs})
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	return g, nil
}

// Save replaces the stored snapshot with g inside a single transaction,
// batching node and edge inserts.
func (s *PostgresStore) Save(ctx context.Context, g *graph.Graph) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE graph_edges, graph_nodes`); err != nil {
		return fmt.Errorf("store: truncating: %w", err)
	}

	batch := &pgx.Batch{}
	for _, n := range g.GetAllNodes() {
		attrs, err := json.Marshal(n.Attributes)
		if err != nil {
			return fmt.Errorf("store: encoding attributes for %s: %w", n.ID, err)
		}
		var vec any
		if len(n.Embedding) > 0 {
			v := pgvector.NewVector(n.Embedding)
			vec = &v
		}
		batch.Queue(`INSERT INTO graph_nodes (id, type, name, path, content, start_line, end_line, embedding, attributes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			n.ID, string(n.Type), n.Name, n.Path, n.Content, n.StartLine, n.EndLine, vec, attrs)
	}
	for _, e := range g.GetAllEdges() {
		attrs, err := json.Marshal(e.Attributes)
		if err != nil {
			return fmt.Errorf("store: encoding edge attributes for %s: %w", e.ID, err)
		}
		batch.Queue(`INSERT INTO graph_edges (id, from_id, to_id, type, attributes) VALUES ($1,$2,$3,$4,$5)`,
			e.ID, e.FromID, e.ToID, string(e.Type), attrs)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("store: executing batch item %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("store: closing batch: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE graph_edges, graph_nodes`)
	if err != nil {
		return fmt.Errorf("store: clearing: %w", err)
	}
	return nil
}
