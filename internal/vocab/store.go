// Package vocab provides the in-memory vocabulary store: an ordered word
// list aligned 1:1 with a matrix of precomputed word embeddings, plus the
// word→row index derived from it. The store is immutable after Load and is
// safe for concurrent readers without locking.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDataLoad indicates that the vocabulary or embedding data could not be
// loaded (missing file, corrupt format, or misaligned sources). It is fatal
// at startup: the process must not serve traffic without a valid store.
var ErrDataLoad = errors.New("vocab: data load failed")

// ErrNotFound indicates that a word is not present in the vocabulary.
// Callers surface this as an empty result or 404, never as a crash.
var ErrNotFound = errors.New("vocab: word not found")

// Source loads an aligned word list and embedding matrix from a backing
// location. Implementations exist for NPY files, SQLite, and Postgres.
type Source interface {
	// Load returns the word list and the embedding matrix, index-aligned.
	// len(words) must equal len(vectors).
	Load(ctx context.Context) (words []string, vectors [][]float32, err error)
}

// Store holds the loaded vocabulary and embeddings.
type Store struct {
	words   []string
	vectors [][]float32
	index   map[string]int
	dim     int
}

// Normalize canonicalizes a word for lookup: trimmed and lowercased.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Load reads words and vectors from the source and builds a Store.
// It fails with ErrDataLoad on any source error or invariant violation.
func Load(ctx context.Context, src Source) (*Store, error) {
	words, vectors, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	return NewStore(words, vectors)
}

// NewStore builds a Store from an aligned word list and embedding matrix.
// Words are lowercase-normalized. When the source contains the same word
// twice, the first occurrence wins and later rows are dropped, keeping the
// word list and matrix aligned.
func NewStore(words []string, vectors [][]float32) (*Store, error) {
	if len(words) != len(vectors) {
		return nil, fmt.Errorf("%w: %d words but %d embedding rows", ErrDataLoad, len(words), len(vectors))
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrDataLoad)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension embeddings", ErrDataLoad)
	}

	s := &Store{
		words:   make([]string, 0, len(words)),
		vectors: make([][]float32, 0, len(vectors)),
		index:   make(map[string]int, len(words)),
		dim:     dim,
	}

	for i, raw := range words {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%w: row %d has dimension %d, want %d", ErrDataLoad, i, len(vectors[i]), dim)
		}
		word := Normalize(raw)
		if word == "" {
			return nil, fmt.Errorf("%w: empty word at row %d", ErrDataLoad, i)
		}
		if _, dup := s.index[word]; dup {
			// First occurrence wins.
			continue
		}
		s.index[word] = len(s.words)
		s.words = append(s.words, word)
		s.vectors = append(s.vectors, vectors[i])
	}

	return s, nil
}

// Len returns the number of vocabulary words.
func (s *Store) Len() int { return len(s.words) }

// Dimension returns the embedding dimension.
func (s *Store) Dimension() int { return s.dim }

// Lookup returns the row index for a normalized word.
func (s *Store) Lookup(word string) (int, bool) {
	i, ok := s.index[Normalize(word)]
	return i, ok
}

// Word returns the vocabulary word at the given row.
func (s *Store) Word(i int) string { return s.words[i] }

// Vector returns the embedding row for the given index. The returned slice
// is shared with the store and must not be modified.
func (s *Store) Vector(i int) []float32 { return s.vectors[i] }

// Words returns a copy of the vocabulary in row order.
func (s *Store) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}
