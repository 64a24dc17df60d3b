package search

import (
	"time"

	"github.com/quillhq/kbsearch/internal/store"
)

// Result is one ranked search hit: a document's display metadata plus its
// best-matching chunk. A result list carries at most one Result per document.
type Result struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	AuthorID        string    `json:"author_id"`
	Published       time.Time `json:"published,omitzero"`
	Summary         string    `json:"summary"`
	Topics          []string  `json:"topics"`
	KeyQuotes       []string  `json:"key_quotes"`
	DiataxisType    string    `json:"diataxis_type"`
	Tags            []string  `json:"tags"`
	Similarity      float64   `json:"similarity"`
	MdxPath         string    `json:"mdx_path"`
	SourceType      string    `json:"source_type"`
	MatchingExcerpt string    `json:"matching_excerpt"`
	Fragment        string    `json:"fragment"`
}

// newResult maps a document and its best chunk match into a Result.
func newResult(doc store.Document, excerpt, fragment string, similarity float64) Result {
	return Result{
		ID:              doc.ID,
		URL:             doc.URL,
		Title:           doc.Title,
		Author:          doc.Author,
		AuthorID:        doc.AuthorID,
		Published:       doc.Published,
		Summary:         doc.Summary,
		Topics:          doc.Topics,
		KeyQuotes:       doc.KeyQuotes,
		DiataxisType:    doc.DiataxisType,
		Tags:            doc.Tags,
		Similarity:      similarity,
		MdxPath:         doc.MdxPath,
		SourceType:      doc.SourceType,
		MatchingExcerpt: excerpt,
		Fragment:        fragment,
	}
}
