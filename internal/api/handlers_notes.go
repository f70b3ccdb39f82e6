package api

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/dgallion1/taglimit/internal/controller"
	"github.com/dgallion1/taglimit/internal/engine"
	"github.com/dgallion1/taglimit/internal/header"
)

// noteInfo is one row of the note status listing.
type noteInfo struct {
	ID         string `json:"id"`
	BodyLength int    `json:"body_length"`
	Tag        string `json:"tag,omitempty"`
	HardLimit  int    `json:"hard_limit,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	bufs, err := s.noteBuffers()
	if err != nil {
		jsonError(w, "scan vault: "+err.Error(), http.StatusInternalServerError)
		return
	}

	set := s.rules.Snapshot()
	infos := make([]noteInfo, 0, len(bufs))
	for _, buf := range bufs {
		full, err := buf.Value()
		if err != nil {
			s.log.Warn("read note", "note", buf.ID(), "error", err)
			continue
		}
		info := noteInfo{
			ID:         buf.ID(),
			BodyLength: utf8.RuneCountInString(engine.StripOverflow(header.Body(full))),
		}
		if rule, ok := set.Resolve(full); ok {
			info.Tag = rule.Tag
			info.HardLimit = rule.HardLimit
		}
		if text, ok := s.board.Warning(buf.ID()); ok {
			info.Warning = text
		}
		infos = append(infos, info)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"notes":   infos,
		"enabled": set.Enabled,
	})
}

// handleEvaluateNotes forces a policy pass over every note, the same
// sweep that runs at startup.
func (s *Server) handleEvaluateNotes(w http.ResponseWriter, r *http.Request) {
	bufs, err := s.noteBuffers()
	if err != nil {
		jsonError(w, "scan vault: "+err.Error(), http.StatusInternalServerError)
		return
	}

	handled := 0
	for _, buf := range bufs {
		if s.ctrl.HandleChange(buf) {
			handled++
		}
	}
	s.log.Info("forced evaluation", "notes", len(bufs), "handled", handled)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"notes":   len(bufs),
		"handled": handled,
	})
}

// noteBuffers lists every vault note as a controller buffer.
func (s *Server) noteBuffers() ([]controller.Buffer, error) {
	paths, err := s.vault.Notes()
	if err != nil {
		return nil, err
	}
	bufs := make([]controller.Buffer, 0, len(paths))
	for _, p := range paths {
		bufs = append(bufs, s.vault.Buffer(p))
	}
	return bufs, nil
}
