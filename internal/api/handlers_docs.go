package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/ngocdv/vanban/internal/store"
)

// handleListDocuments lists every parsed document in the registry.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	records, err := s.docs.List(r.Context())
	if err != nil {
		s.log.Error("document list failed", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": records,
		"count":     len(records),
	})
}

// handleGetDocument serves one registry record together with its
// parsed tree, read back from the JSON the pipeline wrote.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	rec, err := s.docs.GetByID(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("document lookup failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	tree, err := os.ReadFile(rec.JSONPath)
	if err != nil {
		s.log.Error("parsed output missing", "doc_id", docID, "path", rec.JSONPath, "error", err)
		jsonError(w, "parsed output not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"record":   rec,
		"document": json.RawMessage(tree),
	})
}
