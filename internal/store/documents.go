package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quillhq/kbsearch/internal/log"
)

const documentCols = `id, url, title, author, author_id, published, summary,
	content, topics, key_quotes, diataxis_type, tags, mdx_path, source_type`

const listDocumentsSQL = `SELECT ` + documentCols + `
	FROM documents
	ORDER BY id`

const documentsByIDsSQL = `SELECT ` + documentCols + `
	FROM documents
	WHERE id = ANY($1)`

// Documents reads source articles. Documents are written by an external
// ingestion process, so there is no write path here.
type Documents struct {
	db     querier
	logger log.Logger
}

// NewDocuments creates a document reader over the given connection pool.
func NewDocuments(db querier, logger log.Logger) *Documents {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Documents{db: db, logger: logger}
}

// All returns every document, ordered by id for stable iteration.
func (d *Documents) All(ctx context.Context) ([]Document, error) {
	rows, err := d.db.Query(ctx, listDocumentsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("listed documents", "count", len(docs))
	return docs, nil
}

// ByIDs returns the documents for the given ids in one lookup. Missing ids
// are silently absent from the result; callers resolve by id.
func (d *Documents) ByIDs(ctx context.Context, ids []string) (map[string]Document, error) {
	if len(ids) == 0 {
		return map[string]Document{}, nil
	}

	rows, err := d.db.Query(ctx, documentsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching documents by ids: %w", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	return byID, nil
}

func scanDocuments(rows pgx.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		var doc Document
		var published pgtype.Timestamptz
		if err := rows.Scan(
			&doc.ID, &doc.URL, &doc.Title, &doc.Author, &doc.AuthorID,
			&published, &doc.Summary, &doc.Content, &doc.Topics,
			&doc.KeyQuotes, &doc.DiataxisType, &doc.Tags, &doc.MdxPath,
			&doc.SourceType,
		); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if published.Valid {
			doc.Published = published.Time
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	return docs, nil
}
