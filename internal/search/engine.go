// Package search implements the retrieval and ranking engine: embed the
// query, fetch nearest chunks, collapse to one chunk per document, and shape
// ranked results for the API.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/quillhq/kbsearch/internal/fragment"
	"github.com/quillhq/kbsearch/internal/log"
	"github.com/quillhq/kbsearch/internal/store"
)

const (
	// MinQueryRunes is the shortest accepted query.
	MinQueryRunes = 2

	// SimilarityThreshold filters out chunks too dissimilar to be useful.
	SimilarityThreshold = 0.3

	// Overfetch is how many chunks to pull from the index before the
	// per-document collapse. Larger than any result limit because several
	// top chunks may belong to the same document.
	Overfetch = 20

	// DefaultLimit and MaxLimit bound the final result count.
	DefaultLimit = 10
	MaxLimit     = 50

	// ExcerptRunes is the display length of the matching excerpt.
	ExcerptRunes = 200
)

// ErrQueryTooShort rejects queries below MinQueryRunes. Callers map it to a
// client error, not a system failure.
var ErrQueryTooShort = fmt.Errorf("query must be at least %d characters", MinQueryRunes)

// Embedder turns a search query into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// ChunkSearcher is the nearest-neighbor read path of the chunk index.
type ChunkSearcher interface {
	Search(ctx context.Context, embedding []float32, threshold float64, limit int) ([]store.Match, error)
}

// DocumentReader fetches display metadata for a set of documents.
type DocumentReader interface {
	ByIDs(ctx context.Context, ids []string) (map[string]store.Document, error)
}

// Engine runs retrieval queries. Safe for concurrent use.
type Engine struct {
	embedder Embedder
	chunks   ChunkSearcher
	docs     DocumentReader
	logger   log.Logger
}

// New creates an Engine.
func New(embedder Embedder, chunks ChunkSearcher, docs DocumentReader, logger log.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("search: embedder is required")
	}
	if chunks == nil {
		return nil, errors.New("search: chunk searcher is required")
	}
	if docs == nil {
		return nil, errors.New("search: document reader is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Engine{embedder: embedder, chunks: chunks, docs: docs, logger: logger}, nil
}

// Retrieve runs a search query and returns ranked results, at most one per
// document, sorted by descending similarity and trimmed to limit. A limit
// outside [1, MaxLimit] is clamped (zero or negative means DefaultLimit).
// An empty result list is a valid response, not an error.
func (e *Engine) Retrieve(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryRunes {
		return nil, ErrQueryTooShort
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	embedding, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := e.chunks.Search(ctx, embedding, SimilarityThreshold, Overfetch)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	if len(matches) == 0 {
		return []Result{}, nil
	}

	best := collapse(matches)
	sort.SliceStable(best, func(i, j int) bool {
		return best[i].Similarity > best[j].Similarity
	})
	if len(best) > limit {
		best = best[:limit]
	}

	ids := make([]string, len(best))
	for i, m := range best {
		ids[i] = m.DocumentID
	}
	docs, err := e.docs.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching result metadata: %w", err)
	}

	results := make([]Result, 0, len(best))
	for _, m := range best {
		doc, ok := docs[m.DocumentID]
		if !ok {
			// Chunk outlived its document row; treat as degraded, not fatal.
			e.logger.Warn("skipping match with missing document", "document_id", m.DocumentID)
			continue
		}
		results = append(results, newResult(doc,
			excerpt(m.Content),
			fragment.Build(m.Content),
			round2(m.Similarity)))
	}

	e.logger.Debug("retrieval complete",
		"query_length", utf8.RuneCountInString(query),
		"matches", len(matches),
		"results", len(results))
	return results, nil
}

// collapse keeps the single best match per document. Input order is the
// index's ranked output, so on ties the earlier match wins.
func collapse(matches []store.Match) []store.Match {
	bestByDoc := make(map[string]int, len(matches))
	var best []store.Match
	for _, m := range matches {
		i, seen := bestByDoc[m.DocumentID]
		if !seen {
			bestByDoc[m.DocumentID] = len(best)
			best = append(best, m)
			continue
		}
		if m.Similarity > best[i].Similarity {
			best[i] = m
		}
	}
	return best
}

// excerpt trims chunk content to ExcerptRunes for display.
func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptRunes {
		return content
	}
	return string(runes[:ExcerptRunes]) + "…"
}

// round2 rounds a similarity to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
