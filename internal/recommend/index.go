// Package recommend provides nearest-neighbor word recommendation over the
// vocabulary store using cosine distance.
//
// Distances are computed lazily per query rather than precomputing the full
// pairwise matrix: the vocabulary is small (at most tens of thousands of
// words), so a brute-force scan per request is cheap and keeps startup
// instant. A production-scale corpus would swap an approximate-neighbor
// index in behind the same contract.
package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/scrypster/vocabuddy/internal/vocab"
)

// DefaultK is the number of recommendations returned when the caller does
// not specify one.
const DefaultK = 10

// Index answers "k nearest words to word W" queries over an immutable
// vocabulary store. Safe for concurrent use.
type Index struct {
	store *vocab.Store
}

// NewIndex builds an index over the given store.
func NewIndex(store *vocab.Store) *Index {
	return &Index{store: store}
}

// Nearest returns the k vocabulary words closest to word by cosine distance,
// in ascending-distance order, excluding the query word itself. Ties are
// broken by original vocabulary order. k <= 0 selects DefaultK; a k at or
// beyond the vocabulary size returns all other words.
//
// Returns vocab.ErrNotFound when the normalized word is not in the
// vocabulary.
func (ix *Index) Nearest(word string, k int) ([]string, error) {
	norm := vocab.Normalize(word)
	queryIdx, ok := ix.store.Lookup(norm)
	if !ok {
		return nil, fmt.Errorf("%w: %q", vocab.ErrNotFound, word)
	}
	if k <= 0 {
		k = DefaultK
	}

	query := ix.store.Vector(queryIdx)

	type candidate struct {
		idx  int
		dist float64
	}
	candidates := make([]candidate, 0, ix.store.Len()-1)
	for i := 0; i < ix.store.Len(); i++ {
		if i == queryIdx {
			continue
		}
		candidates = append(candidates, candidate{idx: i, dist: cosineDistance(query, ix.store.Vector(i))})
	}

	// Stable sort keeps equal-distance candidates in vocabulary order.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].dist < candidates[b].dist
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	words := make([]string, k)
	for i := 0; i < k; i++ {
		words[i] = ix.store.Word(candidates[i].idx)
	}
	return words, nil
}

// cosineDistance returns 1 - cosine similarity of a and b. A zero-norm
// vector has no direction; its distance to anything is defined as 1.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
