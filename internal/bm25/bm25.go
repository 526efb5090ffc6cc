// Package bm25 implements the standard BM25 lexical ranking function.
// Hand-written, with its own tunable parameters — see DESIGN.md for why
// no third-party library was a fit.
package bm25

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

const (
	k1 = 1.5
	b  = 0.75

	minTokenLength = 2
)

var tokenPattern = regexp.MustCompile(`[^a-z0-9_]+`)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "is": true, "it": true, "for": true, "on": true,
	"with": true, "as": true, "at": true, "by": true, "from": true, "this": true,
	"that": true, "be": true, "are": true, "was": true, "were": true,
}

// Tokenize lowercases text, splits on non-alphanumeric runs (underscore
// allowed), drops stopwords, and discards tokens shorter than
// minTokenLength.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.Split(lower, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < minTokenLength || stopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Result is one ranked hit from a Search call.
type Result struct {
	ID    string
	Score float64
}

type document struct {
	id     string
	tokens []string
	termFreq map[string]int
	length int
}

// Index is a thread-safe BM25 index over plain-text documents.
type Index struct {
	mu sync.RWMutex

	docs        map[string]*document
	docFreq     map[string]int // term -> number of documents containing it
	totalLength int
}

// New returns an empty BM25 index.
func New() *Index {
	return &Index{
		docs:    make(map[string]*document),
		docFreq: make(map[string]int),
	}
}

// AddDocument tokenizes text and inserts or replaces the document at id.
func (idx *Index) AddDocument(id string, text string) {
	tokens := Tokenize(text)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.docs[id]; ok {
		idx.removeLocked(old)
	}

	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	doc := &document{id: id, tokens: tokens, termFreq: tf, length: len(tokens)}
	idx.docs[id] = doc
	idx.totalLength += doc.length
	for term := range tf {
		idx.docFreq[term]++
	}
}

// Remove deletes the document at id, if present.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if doc, ok := idx.docs[id]; ok {
		idx.removeLocked(doc)
		delete(idx.docs, id)
	}
}

func (idx *Index) removeLocked(doc *document) {
	idx.totalLength -= doc.length
	for term := range doc.termFreq {
		idx.docFreq[term]--
		if idx.docFreq[term] <= 0 {
			delete(idx.docFreq, term)
		}
	}
}

// Search ranks every document against query and returns the topK with a
// positive score, sorted descending. An empty index returns no results.
func (idx *Index) Search(query string, topK int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docs) == 0 || topK <= 0 {
		return nil
	}

	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	avgLength := float64(idx.totalLength) / float64(len(idx.docs))
	n := float64(len(idx.docs))

	var results []Result
	for _, doc := range idx.docs {
		var score float64
		for _, term := range queryTerms {
			tf, ok := doc.termFreq[term]
			if !ok {
				continue
			}
			df := float64(idx.docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			numerator := float64(tf) * (k1 + 1)
			denominator := float64(tf) + k1*(1-b+b*float64(doc.length)/avgLength)
			score += idf * numerator / denominator
		}
		if score > 0 {
			results = append(results, Result{ID: doc.id, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Count returns the number of indexed documents.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}
