package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"counters":    s.recorder.Counters(),
		"latency":     s.recorder.Latency(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"warnings":    len(s.board.Warnings()),
	})
}
