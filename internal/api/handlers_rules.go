package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/taglimit/internal/rules"
)

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	set := s.rules.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"rules":   set.Rules,
		"enabled": set.Enabled,
	})
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		jsonError(w, "invalid rule body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.rules.Append(rule); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Info("rule added", "tag", rule.Tag, "warning", rule.WarningLimit, "hard", rule.HardLimit)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"rules": s.rules.Snapshot().Rules})
}

func (s *Server) handleReplaceRule(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "invalid rule index", http.StatusBadRequest)
		return
	}

	var rule rules.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		jsonError(w, "invalid rule body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.rules.Replace(index, rule); err != nil {
		if errors.Is(err, rules.ErrIndexOutOfRange) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Info("rule replaced", "index", index, "tag", rule.Tag)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"rules": s.rules.Snapshot().Rules})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "invalid rule index", http.StatusBadRequest)
		return
	}

	if err := s.rules.Delete(index); err != nil {
		switch {
		case errors.Is(err, rules.ErrLastRule):
			jsonError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, rules.ErrIndexOutOfRange):
			jsonError(w, err.Error(), http.StatusNotFound)
		default:
			jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	s.log.Info("rule deleted", "index", index)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"rules": s.rules.Snapshot().Rules})
}

func (s *Server) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}

	bufs, err := s.noteBuffers()
	if err != nil {
		jsonError(w, "scan vault: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.ctrl.SetEnabled(req.Enabled, bufs); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("enforcement toggled", "enabled", req.Enabled)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"enabled": req.Enabled})
}
