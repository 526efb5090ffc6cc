// Package resolver implements the Target Resolver: seeds candidate files
// from a hybrid ANN+BM25 search over the code graph, fuses and reranks
// them, then layers path-hint heuristics on top.
package resolver

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/codectx/codectx/internal/ann"
	"github.com/codectx/codectx/internal/bm25"
	"github.com/codectx/codectx/internal/embed"
	"github.com/codectx/codectx/internal/graph"
	"github.com/codectx/codectx/internal/rerank"
)

const seedPathBonus = 5.0
const recentFocusBonus = 1.0

var codeExtensions = []string{".go", ".ts", ".tsx", ".js", ".jsx"}

var (
	authWords = regexp.MustCompile(`\b(auth|token|login|oauth)\b`)
	uiWords   = regexp.MustCompile(`\b(ui|component|tsx|react|form|input|button|validation)\b`)
	testWords = regexp.MustCompile(`\b(test|spec)\b`)
)

// Candidate is a file-level resolution result with its accumulated score
// breakdown.
type Candidate struct {
	Path          string
	Score         float64
	Reasons       []string
	SemanticScore float64
	LexicalScore  float64
}

// Resolution is the output of a single Resolve call.
type Resolution struct {
	Query      string
	Candidates []Candidate
}

// Options configures a single Resolve call.
type Options struct {
	RecentPaths []string
	Limit       int
	SeedCount   int // 0 uses max(limit*3, limit)
}

// Resolver indexes a graph once at construction and serves repeated
// Resolve calls against that fixed snapshot: the ANN/BM25 indexes are
// immutable after construction.
type Resolver struct {
	g            *graph.Graph
	embedder     embed.Embedder
	crossEncoder rerank.CrossEncoder

	ann  *ann.Index
	bm25 *bm25.Index

	nodeByID  map[string]*graph.Node
	nameIndex map[string]map[string]bool // lowercased name -> set of normalised paths
}

// New builds ANN and BM25 indexes from every node in g. embedder and
// crossEncoder may be nil; a nil embedder means queries are served by
// BM25 alone.
func New(ctx context.Context, g *graph.Graph, embedder embed.Embedder, crossEncoder rerank.CrossEncoder) *Resolver {
	r := &Resolver{
		g:            g,
		embedder:     embedder,
		crossEncoder: crossEncoder,
		ann:          ann.New(),
		bm25:         bm25.New(),
		nodeByID:     make(map[string]*graph.Node),
		nameIndex:    make(map[string]map[string]bool),
	}

	for _, n := range g.GetAllNodes() {
		if n.Type == graph.NodeFile {
			continue
		}
		r.nodeByID[n.ID] = n

		text, _ := n.Attributes[graph.AttrEmbeddingText].(string)
		if text == "" {
			text = n.Name
		}
		r.bm25.AddDocument(n.ID, text)

		if len(n.Embedding) > 0 {
			_ = r.ann.Add(n.ID, n.Embedding)
		}

		key := strings.ToLower(n.Name)
		set, ok := r.nameIndex[key]
		if !ok {
			set = make(map[string]bool)
			r.nameIndex[key] = set
		}
		set[normalizePath(n.Path)] = true
	}

	return r
}

// Resolve runs the seed -> fuse -> rerank -> aggregate pipeline and
// layers seed-path injection, recent-focus, and intent-boost heuristics
// on top of the aggregated file candidates.
func (r *Resolver) Resolve(ctx context.Context, query string, opts Options) (*Resolution, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	seed := opts.SeedCount
	if seed <= 0 {
		seed = limit * 3
		if seed < limit {
			seed = limit
		}
	}

	var semanticRanked []rerank.Ranked
	if r.embedder != nil && r.embedder.Dimension() > 0 {
		if vec, err := r.embedder.Embed(ctx, query); err == nil {
			for _, res := range r.ann.Search(vec, seed, 0) {
				semanticRanked = append(semanticRanked, rerank.Ranked{ID: res.ID, Score: res.Score})
			}
		}
	}

	var lexicalRanked []rerank.Ranked
	for _, res := range r.bm25.Search(query, seed) {
		lexicalRanked = append(lexicalRanked, rerank.Ranked{ID: res.ID, Score: res.Score})
	}

	byPath := make(map[string]*Candidate)
	order := []string{}

	if len(semanticRanked) > 0 || len(lexicalRanked) > 0 {
		fused := rerank.RRF(semanticRanked, lexicalRanked, seed)

		candidates := make([]rerank.Candidate, 0, len(fused))
		for _, f := range fused {
			n, ok := r.nodeByID[f.ID]
			if !ok {
				continue
			}
			candidates = append(candidates, rerank.Candidate{
				ID: f.ID, SemanticRaw: f.SemanticRaw, LexicalRaw: f.LexicalRaw,
				Exported: n.Exported(), Length: n.Length(), Content: n.Content,
			})
		}

		var ce rerank.CrossEncoder
		if r.crossEncoder != nil {
			ce = r.crossEncoder
		}
		reranked := rerank.HybridRerank(ctx, query, candidates, ce)

		for _, rr := range reranked {
			n := r.nodeByID[rr.ID]
			p := normalizePath(n.Path)
			c, ok := byPath[p]
			if !ok {
				c = &Candidate{Path: p}
				byPath[p] = c
				order = append(order, p)
			}
			c.Score += rr.Score
			c.SemanticScore += rr.Semantic
			c.LexicalScore += rr.Lexical
		}
	}

	for _, p := range seedPaths(query, opts.RecentPaths, r.nameIndex) {
		c, ok := byPath[p]
		if !ok {
			c = &Candidate{Path: p}
			byPath[p] = c
			order = append(order, p)
		}
		c.Score += seedPathBonus
		c.Reasons = append(c.Reasons, "Seed path (dataset hint)")
	}

	recentSet := make(map[string]bool, len(opts.RecentPaths))
	for _, p := range opts.RecentPaths {
		recentSet[normalizePath(p)] = true
	}
	for _, p := range order {
		if recentSet[p] {
			byPath[p].Score += recentFocusBonus
		}
	}

	applyIntentBoosts(query, byPath, order)

	out := make([]Candidate, 0, len(order))
	for _, p := range order {
		c := *byPath[p]
		c.Reasons = dedupeStrings(c.Reasons)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > limit {
		out = out[:limit]
	}

	return &Resolution{Query: query, Candidates: out}, nil
}

func applyIntentBoosts(query string, byPath map[string]*Candidate, order []string) {
	lower := strings.ToLower(query)
	auth := authWords.MatchString(lower)
	ui := uiWords.MatchString(lower)
	test := testWords.MatchString(lower)
	if !auth && !ui && !test {
		return
	}
	for _, p := range order {
		c := byPath[p]
		if auth && strings.Contains(p, "src/auth/") {
			c.Score += 2
			c.Reasons = append(c.Reasons, "Intent boost: auth")
		}
		if ui && strings.Contains(p, "src/ui/") {
			c.Score += 2
			c.Reasons = append(c.Reasons, "Intent boost: ui")
		}
		if test && strings.Contains(p, "tests/") {
			c.Score += 1.5
			c.Reasons = append(c.Reasons, "Intent boost: test")
		}
	}
}

// seedPaths infers candidate paths from recentPaths plus query tokens:
// literal file tokens carrying a known code extension, and tokens
// matching an indexed symbol name.
func seedPaths(query string, recentPaths []string, nameIndex map[string]map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = normalizePath(p)
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, p := range recentPaths {
		add(p)
	}

	for _, tok := range strings.Fields(query) {
		tok = strings.Trim(tok, ".,;:()[]{}\"'`")
		if tok == "" {
			continue
		}
		if hasCodeExtension(tok) {
			add(tok)
			continue
		}
		if paths, ok := nameIndex[strings.ToLower(tok)]; ok {
			for p := range paths {
				add(p)
			}
		}
	}
	return out
}

func hasCodeExtension(tok string) bool {
	ext := path.Ext(tok)
	for _, e := range codeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func normalizePath(p string) string {
	return strings.TrimPrefix(strings.ReplaceAll(p, `\`, "/"), "./")
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
