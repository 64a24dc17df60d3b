package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillhq/kbsearch/internal/log"
	"github.com/quillhq/kbsearch/internal/search"
)

// Retriever runs a search query. Implemented by *search.Engine.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// SearchRequest is the POST /api/search request body. Filters are accepted
// for forward compatibility but not applied by this service.
type SearchRequest struct {
	Query   string          `json:"query"`
	Filters json.RawMessage `json:"filters,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

// SearchResponse is the POST /api/search response body.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
	Total   int             `json:"total"`
}

// SearchHandler handles the search endpoint.
type SearchHandler struct {
	retriever Retriever
	logger    log.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(retriever Retriever, logger log.Logger) *SearchHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &SearchHandler{retriever: retriever, logger: logger}
}

// RegisterRoutes registers search routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/search", h.search)
}

// search embeds the query, runs retrieval, and shapes the response.
// Validation failures are 400s; upstream failures are 500s with the
// diagnostic in the details field. An empty result list is a 200.
func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Filters) > 0 && string(req.Filters) != "null" {
		h.logger.Debug("ignoring unsupported search filters",
			"request_id", requestID(r.Context()))
	}

	results, err := h.retriever.Retrieve(r.Context(), req.Query, req.Limit)
	if err != nil {
		if errors.Is(err, search.ErrQueryTooShort) {
			writeError(w, http.StatusBadRequest, "invalid query", err.Error())
			return
		}
		h.logger.Error("search failed",
			"error", err,
			"request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "search failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   req.Query,
		Results: results,
		Total:   len(results),
	})
}
