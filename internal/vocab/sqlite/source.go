// Package sqlite provides a SQLite-backed vocabulary source. Embeddings are
// stored one row per word as little-endian float32 BLOBs, which keeps the
// artifact a single portable file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// Schema for the vocabulary table. Row order (id ascending) defines the
// embedding matrix row order.
const Schema = `
CREATE TABLE IF NOT EXISTS vocabulary (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	word TEXT NOT NULL,
	embedding BLOB NOT NULL,
	dimension INTEGER NOT NULL
);
`

// Source loads the vocabulary from a SQLite database file.
type Source struct {
	db *sql.DB
}

// NewSource opens the database at path.
func NewSource(path string) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite vocab: open %q: %w", path, err)
	}
	return &Source{db: db}, nil
}

// NewSourceFromDB wraps an existing connection, for tests and tooling.
func NewSourceFromDB(db *sql.DB) *Source {
	return &Source{db: db}
}

// Close releases the database connection.
func (s *Source) Close() error { return s.db.Close() }

// Load reads all vocabulary rows in id order.
func (s *Source) Load(ctx context.Context) ([]string, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word, embedding, dimension FROM vocabulary ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite vocab: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var words []string
	var vectors [][]float32
	for rows.Next() {
		var word string
		var blob []byte
		var dimension int
		if err := rows.Scan(&word, &blob, &dimension); err != nil {
			return nil, nil, fmt.Errorf("sqlite vocab: scan: %w", err)
		}
		vec, err := DeserializeEmbedding(blob, dimension)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite vocab: word %q: %w", word, err)
		}
		words = append(words, word)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("sqlite vocab: iterate: %w", err)
	}
	return words, vectors, nil
}

// Insert appends a word with its embedding, for tooling that builds the
// artifact database.
func (s *Source) Insert(ctx context.Context, word string, embedding []float32) error {
	blob := SerializeEmbedding(embedding)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vocabulary (word, embedding, dimension) VALUES (?, ?, ?)`,
		word, blob, len(embedding))
	if err != nil {
		return fmt.Errorf("sqlite vocab: insert %q: %w", word, err)
	}
	return nil
}

// Init creates the vocabulary table if it does not exist.
func (s *Source) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("sqlite vocab: init schema: %w", err)
	}
	return nil
}

// SerializeEmbedding converts a vector to its little-endian float32 binary
// representation.
func SerializeEmbedding(embedding []float32) []byte {
	buf := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DeserializeEmbedding converts the binary representation back to a float32
// slice. dimension validates the buffer size.
func DeserializeEmbedding(buf []byte, dimension int) ([]float32, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dimension)
	}
	if len(buf) != dimension*4 {
		return nil, fmt.Errorf("buffer size mismatch: expected %d bytes, got %d", dimension*4, len(buf))
	}
	embedding := make([]float32, dimension)
	for i := 0; i < dimension; i++ {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return embedding, nil
}
