// Package sqlite provides a core.Index persisted in SQLite. Embeddings are
// stored as JSON arrays and ranked in process with memory.Rank.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/memory"
	"github.com/hupe1980/caremesh/model"
)

var _ core.Index = (*Index)(nil)

// Index stores report chunks in a SQLite database.
type Index struct {
	db       *sql.DB
	embedder model.Embedder
}

// Open opens or creates the index database at path. An empty path opens a
// private in-memory database.
func Open(path string, embedder model.Embedder) (*Index, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	idx := &Index{db: db, embedder: embedder}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			text TEXT NOT NULL,
			source TEXT NOT NULL,
			vector TEXT NOT NULL,
			UNIQUE(namespace, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_namespace ON chunks(namespace)`,
	}
	for _, stmt := range statements {
		if _, err := idx.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Add embeds docs and upserts them under namespace.
func (idx *Index) Add(ctx context.Context, namespace string, docs []core.ReportDocument) error {
	if len(docs) == 0 {
		return nil
	}
	vectors, err := memory.EmbedDocuments(ctx, idx.embedder, docs)
	if err != nil {
		return err
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (namespace, id, text, source, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET text = excluded.text, source = excluded.source, vector = excluded.vector`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		raw, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("encoding vector: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, namespace, d.ID, d.Text, d.Source, string(raw)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// Query ranks the namespace's chunks against text and returns at most topK.
func (idx *Index) Query(ctx context.Context, namespace string, text string, topK int) ([]core.Chunk, error) {
	if topK <= 0 {
		return []core.Chunk{}, nil
	}

	rows, err := idx.db.QueryContext(ctx,
		`SELECT text, source, vector FROM chunks WHERE namespace = ? ORDER BY rowid`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []memory.Candidate
	for rows.Next() {
		var (
			c   memory.Candidate
			raw string
		)
		if err := rows.Scan(&c.Text, &c.Source, &raw); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &c.Vector); err != nil {
			return nil, fmt.Errorf("decoding vector: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	if len(candidates) == 0 {
		return []core.Chunk{}, nil
	}

	vectors, err := idx.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors: %w", len(vectors), core.ErrCollaborator)
	}
	return memory.Rank(vectors[0], candidates, topK), nil
}

// Drop deletes every chunk stored under namespace.
func (idx *Index) Drop(ctx context.Context, namespace string) error {
	if _, err := idx.db.ExecContext(ctx, `DELETE FROM chunks WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("dropping namespace %s: %w", namespace, err)
	}
	return nil
}

// Count returns the number of chunks stored under namespace.
func (idx *Index) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx,
		`SELECT count(*) FROM chunks WHERE namespace = ?`, namespace).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}
