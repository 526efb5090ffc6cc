// Package builder implements the Graph Builder: it crawls a directory,
// parses each file with the registered language front-end, and
// assembles a graph.Graph with import/contains/calls/type/heritage
// edges. Files parse in parallel via errgroup; cross-file edges resolve
// through a qualified-name export index.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codectx/codectx/internal/crawl"
	"github.com/codectx/codectx/internal/embed"
	"github.com/codectx/codectx/internal/graph"
	"github.com/codectx/codectx/internal/parsefe"
)

const defaultConcurrency = 8

// Options configures a build. A nil Embedder defaults to the no-op
// embedder and a nil Cache to an in-memory cache, so callers that only need structural graph data (no ANN index) can
// omit both without touching EMBEDDINGS_DISABLED plumbing.
type Options struct {
	Embedder      embed.Embedder
	Cache         embed.Cache
	Concurrency   int
	MaxFileSizeKB int
}

// Result carries the built graph plus build telemetry.
type Result struct {
	Graph        *graph.Graph
	FilesParsed  int
	FilesSkipped int
	ParseErrors  []string
	Duration     time.Duration
}

// Build crawls rootPath and constructs a complete graph from scratch.
// Used by the Graph Manager's initialize(forceRebuild) and
// mergeOverlay() full-rebuild paths.
func Build(ctx context.Context, rootPath string, opts Options) (*Result, error) {
	start := time.Now()

	embedder, cache := opts.Embedder, opts.Cache
	if embedder == nil {
		embedder = embed.NoopEmbedder{}
	}
	if cache == nil {
		cache = embed.NewMemoryCache()
	}
	if err := embedder.Initialize(ctx); err != nil {
		slog.Warn("builder: embedder init failed, degrading to noop", "error", err)
		embedder = embed.NoopEmbedder{}
	}

	crawlResult, err := crawl.Directory(rootPath, opts.MaxFileSizeKB)
	if err != nil {
		return nil, fmt.Errorf("builder: crawling %s: %w", rootPath, err)
	}

	fileSet := make(map[string]bool, len(crawlResult.Files))
	for _, f := range crawlResult.Files {
		fileSet[f.RelPath] = true
	}

	parsed, parseErrors := parseAll(ctx, crawlResult.Files, concurrencyOf(opts))

	g := graph.New()
	lookup := newSymbolLookup()

	// Pass 1: file and symbol nodes. Edges, "contains" included, are added in Pass 2.
	for _, pf := range parsed {
		fileID := graph.FileNodeID(pf.file.RelPath)
		g.UpsertNode(&graph.Node{
			ID:   fileID,
			Type: graph.NodeFile,
			Name: filepath.Base(pf.file.RelPath),
			Path: pf.file.RelPath,
		})
		lookup.addFile(pf.file.RelPath, fileID)

		for _, sym := range pf.result.Symbols {
			nodeType := graph.NodeFunction
			if sym.Kind == "struct" || sym.Kind == "class" || sym.Kind == "interface" || sym.Kind == "type_alias" || sym.Kind == "enum" {
				nodeType = graph.NodeClass
			}

			id := graph.SymbolNodeID(pf.file.RelPath, nodeType, sym.QualifiedName, sym.StartLine, sym.EndLine, sym.Kind)
			node := &graph.Node{
				ID:        id,
				Type:      nodeType,
				Name:      sym.Name,
				Path:      pf.file.RelPath,
				Content:   sym.Source,
				StartLine: sym.StartLine,
				EndLine:   sym.EndLine,
				Attributes: map[string]any{
					graph.AttrExported:       sym.Exported,
					graph.AttrKind:           sym.Kind,
					graph.AttrParentName:     sym.ParentName,
					graph.AttrParentType:     sym.ParentType,
					graph.AttrSignature:      sym.Signature,
					graph.AttrParameters:     sym.Parameters,
					graph.AttrReturnType:     sym.ReturnType,
					graph.AttrDocumentation: sym.Documentation,
					graph.AttrDigest:        sym.BodyHash,
					graph.AttrEmbeddingText: embeddingText(sym),
				},
			}
			g.UpsertNode(node)
			lookup.addSymbol(sym.QualifiedName, id)
		}
	}

	// Pass 2: edges, now that every symbol and file node exists.
	for _, pf := range parsed {
		sourceDir := filepath.Dir(pf.file.RelPath)
		fileID := graph.FileNodeID(pf.file.RelPath)

		for _, e := range pf.result.Edges {
			switch e.Kind {
			case "imports":
				target, ok := resolveRelativeImport(e.Target, sourceDir, fileSet)
				if !ok {
					continue // non-relative or unresolved; dropped per import-resolution scope
				}
				targetID := graph.FileNodeID(target)
				if g.GetNode(targetID) == nil {
					continue
				}
				addEdgeIfNew(g, graph.EdgeImports, fileID, targetID, e)

			case "contains":
				srcID, srcOK := lookup.resolve(e.Source)
				tgtID, tgtOK := lookup.resolve(e.Target)
				if !srcOK || !tgtOK {
					continue
				}
				addEdgeIfNew(g, graph.EdgeContains, srcID, tgtID, e)

			case "calls":
				srcID, srcOK := lookup.resolve(e.Source)
				tgtID, tgtOK := lookup.resolve(e.Target)
				if !srcOK || !tgtOK {
					continue // unresolved: external call, receiver-qualified, or builtin
				}
				addEdgeIfNew(g, graph.EdgeCalls, srcID, tgtID, e)

			case "uses_type":
				srcID, srcOK := lookup.resolve(e.Source)
				tgtID, tgtOK := lookup.resolve(e.Target)
				if !srcOK || !tgtOK {
					continue
				}
				addEdgeIfNew(g, graph.EdgeReferences, srcID, tgtID, e)

			case "extends", "embeds":
				srcID, srcOK := lookup.resolve(e.Source)
				tgtID, tgtOK := lookup.resolve(e.Target)
				if !srcOK || !tgtOK {
					continue
				}
				addEdgeIfNew(g, graph.EdgeExtends, srcID, tgtID, e)

			case "implements":
				srcID, srcOK := lookup.resolve(e.Source)
				tgtID, tgtOK := lookup.resolve(e.Target)
				if !srcOK || !tgtOK {
					continue
				}
				addEdgeIfNew(g, graph.EdgeImplements, srcID, tgtID, e)
			}
		}
	}

	if err := embedGraph(ctx, g, embedder, cache); err != nil {
		slog.Warn("builder: embedding pass failed, continuing without vectors", "error", err)
	}
	if err := cache.Flush(); err != nil {
		slog.Warn("builder: cache flush failed", "error", err)
	}

	return &Result{
		Graph:        g,
		FilesParsed:  len(parsed),
		FilesSkipped: crawlResult.Stats.Skipped,
		ParseErrors:  parseErrors,
		Duration:     time.Since(start),
	}, nil
}

func concurrencyOf(opts Options) int {
	if opts.Concurrency > 0 {
		return opts.Concurrency
	}
	return defaultConcurrency
}

type parsedFile struct {
	file   crawl.File
	result *parsefe.FileResult
}

// parseAll parses files in parallel with a bounded worker pool. Per-file
// parse errors are collected and skipped rather than aborting the build.
func parseAll(ctx context.Context, files []crawl.File, concurrency int) ([]parsedFile, []string) {
	type slot struct {
		file   crawl.File
		result *parsefe.FileResult
		err    string
	}

	slots := make([]slot, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			source, err := os.ReadFile(f.AbsPath)
			if err != nil {
				slots[i] = slot{file: f, err: fmt.Sprintf("%s: %v", f.RelPath, err)}
				return nil
			}
			result, err := parsefe.Parse(f.RelPath, source)
			if err != nil {
				slots[i] = slot{file: f, err: fmt.Sprintf("%s: %v", f.RelPath, err)}
				return nil
			}
			slots[i] = slot{file: f, result: result}
			return nil
		})
	}
	_ = g.Wait()

	var parsed []parsedFile
	var parseErrors []string
	for _, s := range slots {
		if s.err != "" {
			parseErrors = append(parseErrors, s.err)
			continue
		}
		if s.result != nil {
			parsed = append(parsed, parsedFile{file: s.file, result: s.result})
		}
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].file.RelPath < parsed[j].file.RelPath })
	return parsed, parseErrors
}

func addEdgeIfNew(g *graph.Graph, edgeType graph.EdgeType, fromID, toID string, src parsefe.EdgeRef) {
	id := graph.EdgeID(edgeType, fromID, toID)
	if g.GetNode(fromID) == nil || g.GetNode(toID) == nil {
		return
	}
	_ = g.AddEdge(&graph.Edge{
		ID:     id,
		FromID: fromID,
		ToID:   toID,
		Type:   edgeType,
		Attributes: map[string]any{
			"line": src.Line,
		},
	})
}

func embeddingText(sym parsefe.Symbol) string {
	if sym.Documentation != "" {
		return sym.Documentation + "\n\n" + sym.Signature
	}
	return sym.Signature
}
