// Package retriever implements the Dependency-Aware Retriever: given a
// resolved target file, walks the code graph forward and backward, ranks
// and categorises related nodes, then packs the result into a
// token-budgeted, formatted context — collecting candidate nodes, then
// budget-packing them into labelled sections by graph-walk category
// rather than a flat ranked list.
package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/codectx/codectx/internal/bm25"
	"github.com/codectx/codectx/internal/embed"
	"github.com/codectx/codectx/internal/graph"
	"github.com/codectx/codectx/internal/resolver"
	"github.com/codectx/codectx/internal/tokencount"
)

const (
	minTokenBudget = 6000
	maxTokenBudget = 12000

	defaultWalkDepth    = 2
	defaultRelatedLimit = 5
	defaultBreadthLimit = 3

	forwardBudgetFraction  = 0.95
	backwardBudgetFraction = 0.80

	semanticFallbackThreshold = 0.6
	semanticWeight            = 0.6
	lexicalWeight             = 0.4
)

var walkEdgeTypes = []graph.EdgeType{graph.EdgeImports, graph.EdgeCalls, graph.EdgeReferences}

// Category tags where a node ended up in the packed context.
type Category string

const (
	CategoryTarget   Category = "target"
	CategoryForward  Category = "forward"
	CategoryBackward Category = "backward"
	CategoryRelated  Category = "related"
)

// Options configures a single Build call.
type Options struct {
	CandidatePaths []string
	WalkDepth      int
	RelatedLimit   int
	BreadthLimit   int
}

func (o Options) withDefaults() Options {
	if o.WalkDepth <= 0 {
		o.WalkDepth = defaultWalkDepth
	}
	if o.RelatedLimit <= 0 {
		o.RelatedLimit = defaultRelatedLimit
	}
	if o.BreadthLimit <= 0 {
		o.BreadthLimit = defaultBreadthLimit
	}
	return o
}

// Entry is one node placed into the packed context.
type Entry struct {
	Node     *graph.Node
	Category Category
}

// SourceScores breaks a candidate's fused score down for telemetry.
type SourceScores struct {
	Semantic float64
	Lexical  float64
}

// Telemetry carries accounting for how a context was assembled.
type Telemetry struct {
	PrimaryPath    string
	CandidateCount int
	TokenBudget    int
	TokensUsed     int
	TokensSaved    int
	SourceScores   map[string]SourceScores
}

// Context is the formatted, budget-packed output of a Build call.
type Context struct {
	PrimaryPath string
	Entries     []Entry
	Formatted   string
	Telemetry   Telemetry
}

// Retriever packs dependency-aware context for one graph snapshot.
type Retriever struct {
	g        *graph.Graph
	resolver *resolver.Resolver
	embedder embed.Embedder
	counter  tokencount.Counter
}

// New constructs a Retriever bound to g. res is kept on the Retriever but
// no Build step reads it; embedder may be nil, in which case the semantic
// ranking step degrades to BM25 alone.
func New(g *graph.Graph, res *resolver.Resolver, embedder embed.Embedder) *Retriever {
	return &Retriever{g: g, resolver: res, embedder: embedder, counter: tokencount.New()}
}

// Build resolves the target file, walks its dependencies, and packs a
// token-budgeted context.
func (r *Retriever) Build(ctx context.Context, query string, targetFile string, tokenBudget int, opts Options, resolution *resolver.Resolution) (*Context, error) {
	opts = opts.withDefaults()
	tokenBudget = clampBudget(tokenBudget)

	primary, err := r.resolvePrimaryPath(targetFile, opts, resolution)
	if err != nil {
		return nil, err
	}

	targets := r.identifyTargetNodes(primary, query, resolution)
	if len(targets) == 0 {
		return nil, fmt.Errorf("retriever: no nodes found for target file %s", primary)
	}

	forward := r.walk(targets, walkEdgeTypes, opts.WalkDepth, false)
	backward := r.walk(targets, walkEdgeTypes, opts.WalkDepth, true)

	forward = limitByPriority(forward, opts.BreadthLimit)
	backward = limitByPriority(backward, opts.BreadthLimit)

	placed := make(map[string]Category)
	for _, n := range targets {
		placed[n.ID] = CategoryTarget
	}
	forward = excludePlaced(forward, placed)
	for _, n := range forward {
		placed[n.ID] = CategoryForward
	}
	backward = excludePlaced(backward, placed)
	for _, n := range backward {
		placed[n.ID] = CategoryBackward
	}

	related := r.relatedNodes(ctx, query, targets, backward, placed, opts.RelatedLimit)
	for _, n := range related {
		placed[n.ID] = CategoryRelated
	}

	entries, tokensUsed := r.pack(targets, forward, backward, related, tokenBudget)

	formatted := formatSections(entries)
	fullFileTokens := r.fullFileTokenEstimate(entries)
	saved := fullFileTokens*3 - tokensUsed
	if saved < 0 {
		saved = 0
	}

	sourceScores := make(map[string]SourceScores)
	if resolution != nil {
		for _, c := range resolution.Candidates {
			sourceScores[c.Path] = SourceScores{Semantic: c.SemanticScore, Lexical: c.LexicalScore}
		}
	}

	return &Context{
		PrimaryPath: primary,
		Entries:     entries,
		Formatted:   formatted,
		Telemetry: Telemetry{
			PrimaryPath:    primary,
			CandidateCount: len(opts.CandidatePaths),
			TokenBudget:    tokenBudget,
			TokensUsed:     tokensUsed,
			TokensSaved:    saved,
			SourceScores:   sourceScores,
		},
	}, nil
}

func clampBudget(b int) int {
	if b < minTokenBudget {
		return minTokenBudget
	}
	if b > maxTokenBudget {
		return maxTokenBudget
	}
	return b
}

// resolvePrimaryPath picks explicit target > resolver's primary > first
// candidate.
func (r *Retriever) resolvePrimaryPath(targetFile string, opts Options, resolution *resolver.Resolution) (string, error) {
	if targetFile != "" {
		return targetFile, nil
	}
	if resolution != nil && len(resolution.Candidates) > 0 {
		return resolution.Candidates[0].Path, nil
	}
	if len(opts.CandidatePaths) > 0 {
		return opts.CandidatePaths[0], nil
	}
	return "", fmt.Errorf("retriever: no target file could be resolved")
}

// identifyTargetNodes scores in-file non-file nodes by query overlap and
// keeps up to 3 with a positive score, else takes every function/class,
// else the file node itself. resolution is not consulted: its candidates
// are file-level and carry no node list.
func (r *Retriever) identifyTargetNodes(primary, query string, resolution *resolver.Resolution) []*graph.Node {
	nodes := r.g.GetNodesByPath(primary)

	var nonFile []*graph.Node
	for _, n := range nodes {
		if n.Type != graph.NodeFile {
			nonFile = append(nonFile, n)
		}
	}
	if len(nonFile) == 0 {
		for _, n := range nodes {
			if n.Type == graph.NodeFile {
				return []*graph.Node{n}
			}
		}
		return nil
	}

	if query != "" {
		scored := scoreByQueryOverlap(nonFile, query)
		sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
		var top []*graph.Node
		for i := 0; i < len(scored) && i < 3; i++ {
			if scored[i].score > 0 {
				top = append(top, scored[i].node)
			}
		}
		if len(top) > 0 {
			return top
		}
	}

	var funcs []*graph.Node
	for _, n := range nonFile {
		if n.Type == graph.NodeFunction || n.Type == graph.NodeClass {
			funcs = append(funcs, n)
		}
	}
	if len(funcs) > 0 {
		return funcs
	}
	return nonFile
}

type scoredNode struct {
	node  *graph.Node
	score float64
}

var actionKeywords = []string{"add", "update", "fix", "remove", "delete", "create", "handle", "validate"}

func scoreByQueryOverlap(nodes []*graph.Node, query string) []scoredNode {
	queryTokens := bm25.Tokenize(query)
	tokenSet := make(map[string]bool, len(queryTokens))
	for _, t := range queryTokens {
		tokenSet[t] = true
	}
	lowerQuery := strings.ToLower(query)

	out := make([]scoredNode, len(nodes))
	for i, n := range nodes {
		var score float64
		for _, t := range bm25.Tokenize(n.Name) {
			if tokenSet[t] {
				score++
			}
		}
		if strings.Contains(lowerQuery, strings.ToLower(n.Name)) {
			score += 2
		}
		for _, kw := range actionKeywords {
			if strings.Contains(lowerQuery, kw) {
				score += 0.5
			}
		}
		out[i] = scoredNode{node: n, score: score}
	}
	return out
}

// walk does a BFS from targets following walkEdgeTypes up to depth,
// reversed when backward is true. File-typed nodes and the seed set are
// excluded.
func (r *Retriever) walk(targets []*graph.Node, edgeTypes []graph.EdgeType, depth int, backward bool) []*graph.Node {
	seed := make(map[string]bool, len(targets))
	for _, n := range targets {
		seed[n.ID] = true
	}

	visited := make(map[string]bool)
	var out []*graph.Node
	frontier := targets

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []*graph.Node
		for _, n := range frontier {
			neighbors := r.neighborsOf(n.ID, edgeTypes, backward)
			for _, nb := range neighbors {
				if nb.Type == graph.NodeFile || seed[nb.ID] || visited[nb.ID] {
					continue
				}
				visited[nb.ID] = true
				out = append(out, nb)
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return out
}

func (r *Retriever) neighborsOf(id string, edgeTypes []graph.EdgeType, backward bool) []*graph.Node {
	var out []*graph.Node
	if backward {
		for _, e := range r.g.GetIncomingEdges(id) {
			if !containsEdgeType(edgeTypes, e.Type) {
				continue
			}
			if n := r.g.GetNode(e.FromID); n != nil {
				out = append(out, n)
			}
		}
		return out
	}
	for _, et := range edgeTypes {
		out = append(out, r.g.GetNeighbors(id, et)...)
	}
	return out
}

func containsEdgeType(types []graph.EdgeType, t graph.EdgeType) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

// limitByPriority keeps the breadthLimit highest-priority nodes, where
// priority = exported*2 + locality.
func limitByPriority(nodes []*graph.Node, breadthLimit int) []*graph.Node {
	sort.Slice(nodes, func(i, j int) bool { return priority(nodes[i]) > priority(nodes[j]) })
	if len(nodes) > breadthLimit {
		nodes = nodes[:breadthLimit]
	}
	return nodes
}

func priority(n *graph.Node) float64 {
	exported := 0.0
	if n.Exported() {
		exported = 1.0
	}
	return exported*2 + 1.0/math.Log(float64(n.Length())+1)
}

func excludePlaced(nodes []*graph.Node, placed map[string]Category) []*graph.Node {
	var out []*graph.Node
	for _, n := range nodes {
		if _, ok := placed[n.ID]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// relatedNodes ranks remaining non-file nodes by semantic similarity
// (falling back to a BM25 blend when the top score is weak), then pads
// with a graph-expansion set: same-file exported siblings, outgoing
// neighbours, and 1-depth backward dependents.
func (r *Retriever) relatedNodes(ctx context.Context, query string, targets, backward []*graph.Node, placed map[string]Category, relatedLimit int) []*graph.Node {
	candidates := r.remainingCandidates(placed)

	ranked := r.rankBySemantic(ctx, query, candidates)
	var out []*graph.Node
	seen := make(map[string]bool)
	for _, n := range ranked {
		if len(out) >= relatedLimit {
			break
		}
		if seen[n.ID] || placed[n.ID] != "" {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}

	if len(out) >= relatedLimit {
		return out
	}

	expansion := r.graphExpansionSet(targets, backward)
	for _, n := range expansion {
		if len(out) >= relatedLimit {
			break
		}
		if seen[n.ID] || placed[n.ID] != "" {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

func (r *Retriever) remainingCandidates(placed map[string]Category) []*graph.Node {
	var out []*graph.Node
	for _, n := range r.g.GetAllNodes() {
		if n.Type == graph.NodeFile {
			continue
		}
		if _, ok := placed[n.ID]; ok {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (r *Retriever) rankBySemantic(ctx context.Context, query string, candidates []*graph.Node) []*graph.Node {
	if len(candidates) == 0 || query == "" {
		return nil
	}

	type scored struct {
		node     *graph.Node
		semantic float64
		lexical  float64
	}
	scores := make([]scored, 0, len(candidates))

	var queryVec []float32
	if r.embedder != nil && r.embedder.Dimension() > 0 {
		if v, err := r.embedder.Embed(ctx, query); err == nil {
			queryVec = v
		}
	}

	idx := bm25.New()
	for _, n := range candidates {
		text, _ := n.Attributes[graph.AttrEmbeddingText].(string)
		if text == "" {
			text = n.Name
		}
		idx.AddDocument(n.ID, text)
	}
	lexicalResults := idx.Search(query, len(candidates))
	lexicalByID := make(map[string]float64, len(lexicalResults))
	for _, res := range lexicalResults {
		lexicalByID[res.ID] = res.Score
	}

	topSemantic := 0.0
	for _, n := range candidates {
		sem := 0.0
		if queryVec != nil && len(n.Embedding) > 0 {
			sem = embed.CosineSimilarity(queryVec, n.Embedding)
		}
		if sem > topSemantic {
			topSemantic = sem
		}
		scores = append(scores, scored{node: n, semantic: sem, lexical: lexicalByID[n.ID]})
	}

	blend := topSemantic < semanticFallbackThreshold
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		var sa, sb float64
		if blend {
			sa = semanticWeight*a.semantic + lexicalWeight*a.lexical
			sb = semanticWeight*b.semantic + lexicalWeight*b.lexical
		} else {
			sa, sb = a.semantic, b.semantic
		}
		return sa > sb
	})

	out := make([]*graph.Node, len(scores))
	for i, s := range scores {
		out[i] = s.node
	}
	return out
}

func (r *Retriever) graphExpansionSet(targets, backward []*graph.Node) []*graph.Node {
	var out []*graph.Node
	seen := make(map[string]bool)
	add := func(n *graph.Node) {
		if n.Type == graph.NodeFile || seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, n)
	}

	for _, t := range targets {
		for _, sibling := range r.g.GetNodesByPath(t.Path) {
			if sibling.ID != t.ID && sibling.Exported() {
				add(sibling)
			}
		}
		for _, et := range []graph.EdgeType{graph.EdgeCalls, graph.EdgeImports, graph.EdgeReferences, graph.EdgeContains} {
			for _, n := range r.g.GetNeighbors(t.ID, et) {
				add(n)
			}
		}
	}
	for _, b := range backward {
		for _, e := range r.g.GetIncomingEdges(b.ID) {
			if n := r.g.GetNode(e.FromID); n != nil {
				add(n)
			}
		}
	}
	return out
}

// pack always includes target nodes, then packs backward within 80% of
// budget, forward within 95%, related within 100%, each tested by the
// estimated tokens of its formatted rendering.
func (r *Retriever) pack(targets, forward, backward, related []*graph.Node, budget int) ([]Entry, int) {
	var entries []Entry
	used := 0

	for _, n := range targets {
		entries = append(entries, Entry{Node: n, Category: CategoryTarget})
		used += r.counter.Count(formatEntry(Entry{Node: n, Category: CategoryTarget}))
	}

	pack := func(nodes []*graph.Node, category Category, limitFraction float64) {
		limit := int(float64(budget) * limitFraction)
		for _, n := range nodes {
			entry := Entry{Node: n, Category: category}
			cost := r.counter.Count(formatEntry(entry))
			if used+cost > limit {
				continue
			}
			entries = append(entries, entry)
			used += cost
		}
	}

	pack(backward, CategoryBackward, backwardBudgetFraction)
	pack(forward, CategoryForward, forwardBudgetFraction)
	pack(related, CategoryRelated, 1.0)

	return entries, used
}

func (r *Retriever) fullFileTokenEstimate(entries []Entry) int {
	seen := make(map[string]bool)
	total := 0
	for _, e := range entries {
		if seen[e.Node.Path] {
			continue
		}
		seen[e.Node.Path] = true
		for _, n := range r.g.GetNodesByPath(e.Node.Path) {
			if n.Type == graph.NodeFile {
				total += r.counter.Count(n.Content)
			}
		}
	}
	return total
}

var sectionTitles = map[Category]string{
	CategoryTarget:   "TARGET CODE (being modified)",
	CategoryForward:  "DEPENDENCIES",
	CategoryBackward: "DEPENDENTS (these MUST update if signature changes)",
	CategoryRelated:  "RELATED CONTEXT",
}

var sectionOrder = []Category{CategoryTarget, CategoryBackward, CategoryForward, CategoryRelated}

func formatSections(entries []Entry) string {
	byCategory := make(map[Category][]Entry)
	for _, e := range entries {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	var b strings.Builder
	for _, cat := range sectionOrder {
		items := byCategory[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "# %s\n\n", sectionTitles[cat])
		for _, e := range items {
			b.WriteString(formatEntry(e))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatEntry(e Entry) string {
	n := e.Node
	var b strings.Builder
	fmt.Fprintf(&b, "## %s: %s\n", n.Type, n.Name)
	fmt.Fprintf(&b, "%s:%d-%d\n", n.Path, n.StartLine, n.EndLine)
	b.WriteString("```\n")
	b.WriteString(n.Content)
	b.WriteString("\n```\n")
	return b.String()
}
