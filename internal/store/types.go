package store

import "time"

// Document is a source article, created by an external ingestion process and
// read-only here. Content carries the full markdown-like text; the embedding
// column on the documents table is a legacy whole-document vector and is not
// read by this subsystem.
type Document struct {
	ID           string
	URL          string
	Title        string
	Author       string
	AuthorID     string
	Published    time.Time
	Summary      string
	Content      string
	Topics       []string
	KeyQuotes    []string
	DiataxisType string
	Tags         []string
	MdxPath      string
	SourceType   string
}

// Chunk is one retrieval unit of a document: its text and vector, addressed
// by (DocumentID, Index). Index is the chunk's ordinal within the document.
type Chunk struct {
	DocumentID string
	Index      int
	Content    string
	Embedding  []float32
}

// Match is one nearest-neighbor search hit: a chunk plus its cosine
// similarity to the query vector, in [0, 1] for normalized embeddings.
type Match struct {
	DocumentID string
	Index      int
	Content    string
	Similarity float64
}
