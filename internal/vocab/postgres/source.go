// Package postgres provides a PostgreSQL-backed vocabulary source using the
// pgvector extension for the embedding column.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"
)

// Source loads the vocabulary from a PostgreSQL database. The vocabulary
// table is expected to hold one row per word with a vector-typed embedding;
// row order (id ascending) defines the embedding matrix row order.
type Source struct {
	db *sql.DB
}

// NewSource opens a connection using the given DSN.
func NewSource(dsn string) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres vocab: open: %w", err)
	}
	return &Source{db: db}, nil
}

// NewSourceFromDB wraps an existing connection, for tests and tooling.
func NewSourceFromDB(db *sql.DB) *Source {
	return &Source{db: db}
}

// Close releases the database connection.
func (s *Source) Close() error { return s.db.Close() }

// Init creates the vocabulary table and the pgvector extension. dimension
// fixes the vector column width.
func (s *Source) Init(ctx context.Context, dimension int) error {
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("postgres vocab: create extension: %w", err)
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS vocabulary (
			id SERIAL PRIMARY KEY,
			word TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dimension)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres vocab: init schema: %w", err)
	}
	return nil
}

// Load reads all vocabulary rows in id order.
func (s *Source) Load(ctx context.Context) ([]string, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word, embedding FROM vocabulary ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres vocab: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var words []string
	var vectors [][]float32
	for rows.Next() {
		var word string
		var vec pgvector.Vector
		if err := rows.Scan(&word, &vec); err != nil {
			return nil, nil, fmt.Errorf("postgres vocab: scan: %w", err)
		}
		words = append(words, word)
		vectors = append(vectors, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("postgres vocab: iterate: %w", err)
	}
	return words, vectors, nil
}

// Insert appends a word with its embedding, for tooling that builds the
// vocabulary database.
func (s *Source) Insert(ctx context.Context, word string, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vocabulary (word, embedding) VALUES ($1, $2)`,
		word, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("postgres vocab: insert %q: %w", word, err)
	}
	return nil
}
