// Package ann implements the HNSW (Hierarchical Navigable Small World)
// approximate nearest-neighbour index. No library in the dependency
// ecosystem this repo otherwise draws from provides ANN search, so this
// is a hand-written, stdlib-only implementation of the algorithm, as is
// the bm25 package (see DESIGN.md).
package ann

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

const (
	defaultM        = 16
	defaultEfConstr = 200
	defaultEfSearch = 64
)

// Result is one ranked hit from a Search call.
type Result struct {
	ID    string
	Score float64 // cosine similarity, higher is better
}

// Stats reports index size for telemetry.
type Stats struct {
	Count    int
	Dimension int
	MaxLevel int
}

type element struct {
	id     string
	vector []float32
	level  int
	// neighbors[level] is the set of neighbour ids at that level.
	neighbors [][]string
}

// Index is a thread-safe HNSW index over L2-normalised float32 vectors.
// Dimension is fixed on first insert.
type Index struct {
	mu sync.RWMutex

	m           int
	efConstruct int
	efSearch    int
	rnd         *rand.Rand

	dimension int
	elements  map[string]*element
	entry     string
	maxLevel  int
}

// New constructs an empty index with default construction parameters.
func New() *Index {
	return &Index{
		m:           defaultM,
		efConstruct: defaultEfConstr,
		efSearch:    defaultEfSearch,
		rnd:         rand.New(rand.NewSource(1)),
		elements:    make(map[string]*element),
		maxLevel:    -1,
	}
}

// Dimension returns the fixed vector width, or 0 if nothing has been
// inserted yet.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// Add inserts or replaces the vector for id. Replacing an existing id
// updates its vector in place without reassigning its level or rewiring
// its neighbour lists from scratch — the new vector's similarity to its
// existing neighbours is simply recomputed at search time.
func (idx *Index) Add(id string, v []float32) error {
	if len(v) == 0 {
		return errEmptyVector
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(v)
	} else if len(v) != idx.dimension {
		return dimensionError(idx.dimension, len(v))
	}

	if old, ok := idx.elements[id]; ok {
		old.vector = v
		return nil
	}

	level := idx.randomLevel()
	el := &element{id: id, vector: v, level: level, neighbors: make([][]string, level+1)}
	idx.elements[id] = el

	if idx.entry == "" {
		idx.entry = id
		idx.maxLevel = level
		return nil
	}

	idx.insertLocked(el)
	if level > idx.maxLevel {
		idx.entry = id
		idx.maxLevel = level
	}
	return nil
}

// Remove detaches id from every layer it participates in and recomputes
// the entry point if it was removed.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	el, ok := idx.elements[id]
	if !ok {
		return
	}
	delete(idx.elements, id)

	for lvl := 0; lvl <= el.level; lvl++ {
		for _, nid := range el.neighbors[lvl] {
			if n, ok := idx.elements[nid]; ok && lvl <= n.level {
				n.neighbors[lvl] = removeID(n.neighbors[lvl], id)
			}
		}
	}

	if idx.entry != id {
		return
	}
	idx.entry = ""
	idx.maxLevel = -1
	for _, e := range idx.elements {
		if e.level > idx.maxLevel {
			idx.maxLevel = e.level
			idx.entry = e.id
		}
	}
}

// Search returns up to topK nearest neighbours to query by cosine
// similarity. An empty index or a dimension mismatch returns an empty
// list rather than an error, so callers can fall back to lexical search
// unconditionally.
func (idx *Index) Search(query []float32, topK int, ef int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.elements) == 0 || len(query) != idx.dimension || topK <= 0 {
		return nil
	}
	if ef <= 0 {
		ef = idx.efSearch
	}
	if ef < topK {
		ef = topK
	}

	entry := idx.entry
	for lvl := idx.maxLevel; lvl > 0; lvl-- {
		entry = idx.greedyClosest(entry, query, lvl)
	}

	candidates := idx.searchLayer(query, entry, ef, 0)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// Reset discards every element.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.elements = make(map[string]*element)
	idx.entry = ""
	idx.maxLevel = -1
	idx.dimension = 0
}

// StatsSnapshot reports the index's current size.
func (idx *Index) StatsSnapshot() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Stats{Count: len(idx.elements), Dimension: idx.dimension, MaxLevel: idx.maxLevel}
}

func (idx *Index) randomLevel() int {
	u := idx.rnd.Float64()
	if u <= 0 {
		u = 1e-12
	}
	level := int(math.Floor(-math.Log(u) / math.Log(float64(idx.m))))
	if level > 32 {
		level = 32
	}
	return level
}

// insertLocked descends from the entry point greedily above el.level,
// then on each of el's own layers finds ef-best candidates, links the M
// closest, and prunes each neighbour's list back to M.
func (idx *Index) insertLocked(el *element) {
	entry := idx.entry
	for lvl := idx.maxLevel; lvl > el.level; lvl-- {
		entry = idx.greedyClosest(entry, el.vector, lvl)
	}

	for lvl := min(el.level, idx.maxLevel); lvl >= 0; lvl-- {
		candidates := idx.searchLayer(el.vector, entry, idx.efConstruct, lvl)
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
		if len(candidates) > idx.m {
			candidates = candidates[:idx.m]
		}
		for _, c := range candidates {
			el.neighbors[lvl] = append(el.neighbors[lvl], c.ID)
			neighbor := idx.elements[c.ID]
			if neighbor == nil || lvl > neighbor.level {
				continue
			}
			neighbor.neighbors[lvl] = append(neighbor.neighbors[lvl], el.id)
			idx.pruneLocked(neighbor, lvl)
		}
		if len(candidates) > 0 {
			entry = candidates[0].ID
		}
	}
}

func (idx *Index) pruneLocked(el *element, lvl int) {
	if len(el.neighbors[lvl]) <= idx.m {
		return
	}
	type scored struct {
		id    string
		score float64
	}
	scoredList := make([]scored, 0, len(el.neighbors[lvl]))
	for _, nid := range el.neighbors[lvl] {
		n, ok := idx.elements[nid]
		if !ok {
			continue
		}
		scoredList = append(scoredList, scored{id: nid, score: cosine(el.vector, n.vector)})
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].score > scoredList[j].score })
	if len(scoredList) > idx.m {
		scoredList = scoredList[:idx.m]
	}
	kept := make([]string, len(scoredList))
	for i, s := range scoredList {
		kept[i] = s.id
	}
	el.neighbors[lvl] = kept
}

// greedyClosest hill-climbs from entry toward query within a single
// layer, stopping when no neighbour improves on the current best.
func (idx *Index) greedyClosest(entry string, query []float32, lvl int) string {
	current := entry
	best := cosine(query, idx.elements[current].vector)
	for {
		improved := false
		el, ok := idx.elements[current]
		if !ok || lvl > el.level {
			return current
		}
		for _, nid := range el.neighbors[lvl] {
			n, ok := idx.elements[nid]
			if !ok {
				continue
			}
			if s := cosine(query, n.vector); s > best {
				best = s
				current = nid
				improved = true
			}
		}
		if !improved {
			return current
		}
	}
}

// searchLayer runs a beam search of width ef starting from entry at lvl,
// returning every node visited as a candidate result.
func (idx *Index) searchLayer(query []float32, entry string, ef int, lvl int) []Result {
	visited := map[string]bool{entry: true}
	entryEl, ok := idx.elements[entry]
	if !ok {
		return nil
	}
	candidates := []Result{{ID: entry, Score: cosine(query, entryEl.vector)}}
	best := append([]Result(nil), candidates...)

	for len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
		c := candidates[0]
		candidates = candidates[1:]

		worstBest := best[len(best)-1].Score
		if len(best) >= ef && c.Score < worstBest {
			break
		}

		el, ok := idx.elements[c.ID]
		if !ok || lvl > el.level {
			continue
		}
		for _, nid := range el.neighbors[lvl] {
			if visited[nid] {
				continue
			}
			visited[nid] = true
			n, ok := idx.elements[nid]
			if !ok {
				continue
			}
			s := cosine(query, n.vector)
			candidates = append(candidates, Result{ID: nid, Score: s})
			best = append(best, Result{ID: nid, Score: s})
			sort.Slice(best, func(i, j int) bool { return best[i].Score > best[j].Score })
			if len(best) > ef {
				best = best[:ef]
			}
		}
	}
	return best
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
