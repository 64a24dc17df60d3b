// Package gemini wraps the Gemini embedding API behind a batch-oriented
// client. Vectors come back in input order, one per text, at the configured
// dimensionality.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/quillhq/kbsearch/internal/log"
)

// Task types passed to the embedding model. Retrieval quality improves when
// documents and queries are embedded with their respective task hints.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// defaultRequestsPerMinute paces batch calls below the API's free-tier quota.
const defaultRequestsPerMinute = 100

// ProviderError reports a failed embedding API call. Batch and Size identify
// which slice of the input failed, so a caller resuming a long run knows what
// was already embedded.
type ProviderError struct {
	Batch int
	Size  int
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding batch %d (%d texts): %v", e.Batch, e.Size, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Config holds embedding client settings.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// Model is the embedding model name, e.g. "gemini-embedding-001".
	Model string

	// Dimension is the requested output vector length.
	Dimension int

	// BatchSize caps texts per API call.
	BatchSize int
}

// Embedder turns text into fixed-length vectors via the Gemini API.
// Safe for concurrent use.
type Embedder struct {
	client    *genai.Client
	model     string
	dim       int32
	batchSize int
	limiter   *rate.Limiter
	logger    log.Logger
}

// New creates an Embedder. The client talks to the hosted Gemini API backend.
func New(ctx context.Context, cfg Config, logger log.Logger) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("gemini: dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("gemini: batch size must be positive, got %d", cfg.BatchSize)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Embedder{
		client:    client,
		model:     cfg.Model,
		dim:       int32(cfg.Dimension),
		batchSize: cfg.BatchSize,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/defaultRequestsPerMinute), 1),
		logger:    logger,
	}, nil
}

// Dimension returns the configured output vector length.
func (e *Embedder) Dimension() int { return int(e.dim) }

// EmbedBatch embeds texts for the given task type, preserving input order.
// Inputs beyond the batch size are split into sequential API calls; a
// mid-run failure is reported as a ProviderError naming the failed slice.
// An empty input yields an empty output without an API call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, task string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("gemini: text %d is blank", i)
		}
	}

	vectors := make([][]float32, 0, len(texts))
	for batch := 0; batch*e.batchSize < len(texts); batch++ {
		start := batch * e.batchSize
		end := min(start+e.batchSize, len(texts))

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		got, err := e.embed(ctx, texts[start:end], task)
		if err != nil {
			return nil, &ProviderError{Batch: batch, Size: end - start, Err: err}
		}
		vectors = append(vectors, got...)

		e.logger.Debug("embedded batch",
			"batch", batch,
			"texts", end-start,
			"task", task)
	}
	return vectors, nil
}

// EmbedQuery embeds a single search query with the query task hint.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{query}, TaskQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embed performs one EmbedContent call for up to batchSize texts.
func (e *Embedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             task,
		OutputDimensionality: genai.Ptr(e.dim),
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		if len(emb.Values) != int(e.dim) {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(emb.Values), e.dim)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}
