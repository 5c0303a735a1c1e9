package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil || s.llm.LatencyStats() == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model":       s.llm.Model(),
		"stats":       s.llm.LatencyStats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
