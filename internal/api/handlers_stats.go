package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"provider":    s.model.Provider,
		"model":       s.model.Model,
		"queue_depth": s.orch.QueueDepth(),
	}
	if s.model.Stats != nil {
		resp["stats"] = s.model.Stats.Snapshot()
	}
	if s.model.Breaker != nil {
		state := s.model.Breaker.State()
		resp["breaker"] = state
		s.metrics.SetBreakerState(state)
	}
	writeJSON(w, http.StatusOK, resp)
}
