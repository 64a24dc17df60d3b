// Package store persists documents and their retrieval chunks in
// PostgreSQL with pgvector, and serves the nearest-neighbor read path.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/quillhq/kbsearch/internal/log"
)

// MaxUpsertBatch caps rows per batched write. Larger inputs are split into
// sequential batches; rows committed by an earlier batch survive a failure
// in a later one.
const MaxUpsertBatch = 200

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const upsertChunkSQL = `INSERT INTO document_chunks (document_id, chunk_index, content, embedding)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (document_id, chunk_index)
	DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding`

const searchChunksSQL = `SELECT document_id, chunk_index, content,
		1 - (embedding <=> $1) AS similarity
	FROM document_chunks
	WHERE 1 - (embedding <=> $1) >= $2
	ORDER BY embedding <=> $1
	LIMIT $3`

const deleteStaleChunksSQL = `DELETE FROM document_chunks
	WHERE document_id = $1 AND chunk_index >= $2`

// Chunks reads and writes the chunk index.
//
// Chunks is safe for concurrent use by multiple goroutines.
type Chunks struct {
	db     querier
	logger log.Logger
}

// NewChunks creates a chunk index over the given connection pool.
func NewChunks(db querier, logger log.Logger) *Chunks {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Chunks{db: db, logger: logger}
}

// Upsert writes chunks keyed by (document_id, chunk_index), inserting new
// rows and overwriting existing ones. Writes are batched in MaxUpsertBatch
// slices; a failure reports which slice failed and leaves earlier slices
// committed.
func (c *Chunks) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += MaxUpsertBatch {
		end := min(start+MaxUpsertBatch, len(chunks))

		batch := &pgx.Batch{}
		for _, chunk := range chunks[start:end] {
			vec := pgvector.NewVector(chunk.Embedding)
			batch.Queue(upsertChunkSQL, chunk.DocumentID, chunk.Index, chunk.Content, vec)
		}

		if err := c.db.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upserting chunks %d..%d: %w", start, end-1, err)
		}

		c.logger.Debug("upserted chunk batch", "from", start, "to", end-1)
	}
	return nil
}

// Search returns the chunks nearest to the query vector by cosine
// similarity, most similar first. Rows below threshold are filtered out and
// at most limit rows are returned. An empty result is not an error.
func (c *Chunks) Search(ctx context.Context, embedding []float32, threshold float64, limit int) ([]Match, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", limit)
	}

	vec := pgvector.NewVector(embedding)
	rows, err := c.db.Query(ctx, searchChunksSQL, vec, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.DocumentID, &m.Index, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk matches: %w", err)
	}
	return matches, nil
}

// DeleteFrom removes a document's chunks at or beyond fromIndex. Run after
// re-indexing a document that shrank, so stale tail chunks do not linger.
func (c *Chunks) DeleteFrom(ctx context.Context, documentID string, fromIndex int) (int64, error) {
	tag, err := c.db.Exec(ctx, deleteStaleChunksSQL, documentID, fromIndex)
	if err != nil {
		return 0, fmt.Errorf("deleting stale chunks for %q: %w", documentID, err)
	}
	return tag.RowsAffected(), nil
}
