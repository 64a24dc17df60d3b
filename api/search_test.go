package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/kbsearch/internal/log"
	"github.com/quillhq/kbsearch/internal/search"
	"github.com/quillhq/kbsearch/internal/store"
)

type fakeRetriever struct {
	gotQuery string
	gotLimit int
	results  []search.Result
	err      error
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, limit int) ([]search.Result, error) {
	f.gotQuery = query
	f.gotLimit = limit
	return f.results, f.err
}

// countingEmbedder backs a real engine so validation short-circuits are
// observable: a rejected query must never reach the embedding provider.
type countingEmbedder struct{ calls int }

func (c *countingEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	c.calls++
	return []float32{0.1}, nil
}

type emptyChunks struct{}

func (emptyChunks) Search(_ context.Context, _ []float32, _ float64, _ int) ([]store.Match, error) {
	return nil, nil
}

type emptyDocs struct{}

func (emptyDocs) ByIDs(_ context.Context, _ []string) (map[string]store.Document, error) {
	return map[string]store.Document{}, nil
}

func postSearch(t *testing.T, h *SearchHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.search(w, req)
	return w
}

func TestSearchHandler_Success(t *testing.T) {
	retriever := &fakeRetriever{results: []search.Result{
		{ID: "doc-a", Title: "First", Similarity: 0.91},
		{ID: "doc-b", Title: "Second", Similarity: 0.84},
	}}
	h := NewSearchHandler(retriever, log.NewNop())

	w := postSearch(t, h, `{"query": "how to configure search", "limit": 5}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "how to configure search", resp.Query)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, "doc-a", resp.Results[0].ID)

	assert.Equal(t, "how to configure search", retriever.gotQuery)
	assert.Equal(t, 5, retriever.gotLimit)
}

func TestSearchHandler_EmptyResultsIsOK(t *testing.T) {
	h := NewSearchHandler(&fakeRetriever{results: []search.Result{}}, log.NewNop())

	w := postSearch(t, h, `{"query": "nothing matches this"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Results)
}

func TestSearchHandler_ShortQueryRejectedWithoutEmbedding(t *testing.T) {
	embedder := &countingEmbedder{}
	engine, err := search.New(embedder, emptyChunks{}, emptyDocs{}, log.NewNop())
	require.NoError(t, err)
	h := NewSearchHandler(engine, log.NewNop())

	w := postSearch(t, h, `{"query": "a"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, embedder.calls, "embedding provider must not be called for invalid queries")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid query", resp.Error)
}

func TestSearchHandler_MalformedBody(t *testing.T) {
	h := NewSearchHandler(&fakeRetriever{}, log.NewNop())

	w := postSearch(t, h, `{"query": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid request body", resp.Error)
}

func TestSearchHandler_FiltersAcceptedAndIgnored(t *testing.T) {
	retriever := &fakeRetriever{results: []search.Result{}}
	h := NewSearchHandler(retriever, log.NewNop())

	w := postSearch(t, h, `{"query": "some query", "filters": {"tags": ["go"]}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "some query", retriever.gotQuery)
}

func TestSearchHandler_UpstreamFailure(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("embedding provider unreachable")}
	h := NewSearchHandler(retriever, log.NewNop())

	w := postSearch(t, h, `{"query": "some query"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "search failed", resp.Error)
	assert.Contains(t, resp.Details, "unreachable")
}

func TestServer_RoutesAndMiddleware(t *testing.T) {
	retriever := &fakeRetriever{results: []search.Result{}}
	srv := NewServer(nil, retriever, log.NewNop())
	handler := srv.Handler()

	t.Run("request id assigned", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("request id propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "fixed-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
	})

	t.Run("search route registered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/search",
			bytes.NewBufferString(`{"query": "some query"}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong method rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := NewServer(nil, &fakeRetriever{}, log.NewNop())
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := srv.recoveryMiddleware(panicking)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
