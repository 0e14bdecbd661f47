package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ngocdv/vanban/internal/retrieve"
)

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
	// Source restricts hits to one source file when set.
	Source string `json:"source,omitempty"`
}

// handleSearch runs a semantic query over the indexed corpus.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		jsonError(w, "search unavailable: indexing is disabled", http.StatusServiceUnavailable)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	hits, err := s.searcher.Search(r.Context(), retrieve.Query{
		Text:   req.Query,
		TopK:   req.TopK,
		Source: req.Source,
	})
	if err != nil {
		s.log.Error("search failed", "error", err)
		jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"hits":  hits,
		"count": len(hits),
	})
}
