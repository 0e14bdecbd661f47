package api

import (
	"encoding/json"
	"net/http"
)

// handleStats reports corpus totals and the current queue depth.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.docs.Stats(r.Context())
	if err != nil {
		s.log.Error("stats query failed", "error", err)
		jsonError(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"corpus":      stats,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
