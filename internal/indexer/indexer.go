// Package indexer runs the batch job that keeps the chunk index in sync
// with the document store: segment every document, embed the chunks, and
// upsert them. Safe to re-run; re-indexing overwrites chunks in place.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillhq/kbsearch/internal/gemini"
	"github.com/quillhq/kbsearch/internal/log"
	"github.com/quillhq/kbsearch/internal/segment"
	"github.com/quillhq/kbsearch/internal/store"
)

// PrefixFallbackRunes bounds the fallback chunk taken from the start of a
// document whose body is too short to segment.
const PrefixFallbackRunes = 1000

// DocumentLister enumerates the documents to index.
type DocumentLister interface {
	All(ctx context.Context) ([]store.Document, error)
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, task string) ([][]float32, error)
}

// ChunkWriter is the write path of the chunk index.
type ChunkWriter interface {
	Upsert(ctx context.Context, chunks []store.Chunk) error
	DeleteFrom(ctx context.Context, documentID string, fromIndex int) (int64, error)
}

// Summary reports what a run did. SkippedIDs lists documents that produced
// no chunks or failed downstream; a skip is a degraded outcome, not an error.
type Summary struct {
	DocumentsProcessed int
	ChunksIndexed      int
	DocumentsSkipped   int
	SkippedIDs         []string
	Duration           time.Duration
}

// Job indexes all documents. Construct with New and call Run.
type Job struct {
	docs     DocumentLister
	embedder Embedder
	chunks   ChunkWriter
	logger   log.Logger
}

// New creates an indexing Job.
func New(docs DocumentLister, embedder Embedder, chunks ChunkWriter, logger log.Logger) (*Job, error) {
	if docs == nil {
		return nil, fmt.Errorf("indexer: document lister is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("indexer: embedder is required")
	}
	if chunks == nil {
		return nil, fmt.Errorf("indexer: chunk writer is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Job{docs: docs, embedder: embedder, chunks: chunks, logger: logger}, nil
}

// Run indexes every document and returns a Summary. Failures are isolated
// per document: an embedding or write failure skips that document and the
// run keeps moving. Only a failure to list documents aborts the run.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	docs, err := j.docs.All(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing documents: %w", err)
	}
	j.logger.Info("indexing run started", "documents", len(docs))

	var summary Summary
	for _, doc := range docs {
		indexed, err := j.indexDocument(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				summary.Duration = time.Since(start)
				return summary, fmt.Errorf("indexing interrupted: %w", ctx.Err())
			}
			j.logger.Warn("skipping document", "id", doc.ID, "error", err)
			summary.DocumentsSkipped++
			summary.SkippedIDs = append(summary.SkippedIDs, doc.ID)
			continue
		}
		if indexed == 0 {
			j.logger.Warn("skipping document with no indexable content", "id", doc.ID)
			summary.DocumentsSkipped++
			summary.SkippedIDs = append(summary.SkippedIDs, doc.ID)
			continue
		}
		summary.DocumentsProcessed++
		summary.ChunksIndexed += indexed
	}

	summary.Duration = time.Since(start)
	j.logger.Info("indexing run finished",
		"processed", summary.DocumentsProcessed,
		"chunks", summary.ChunksIndexed,
		"skipped", summary.DocumentsSkipped,
		"duration", summary.Duration)
	return summary, nil
}

// indexDocument segments, embeds, and writes one document's chunks,
// returning how many chunks were indexed. Zero with a nil error means the
// document had no indexable content.
func (j *Job) indexDocument(ctx context.Context, doc store.Document) (int, error) {
	body := segment.Body(doc.Content)
	texts := segment.Split(body)
	if len(texts) == 0 {
		// Too short to segment; index a prefix so the document is still findable.
		if prefix := prefixChunk(body); prefix != "" {
			texts = []string{prefix}
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := j.embedder.EmbedBatch(ctx, texts, gemini.TaskDocument)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(texts))
	}

	chunks := make([]store.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = store.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Content:    text,
			Embedding:  vectors[i],
		}
	}

	if err := j.chunks.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("writing chunks: %w", err)
	}

	// A document that shrank since the last run leaves stale tail chunks.
	stale, err := j.chunks.DeleteFrom(ctx, doc.ID, len(chunks))
	if err != nil {
		return 0, fmt.Errorf("deleting stale chunks: %w", err)
	}
	if stale > 0 {
		j.logger.Debug("deleted stale chunks", "id", doc.ID, "count", stale)
	}

	j.logger.Debug("indexed document", "id", doc.ID, "chunks", len(chunks))
	return len(chunks), nil
}

// prefixChunk returns up to PrefixFallbackRunes of the body, trimmed.
func prefixChunk(body string) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) > PrefixFallbackRunes {
		body = string(runes[:PrefixFallbackRunes])
	}
	return strings.TrimSpace(body)
}
