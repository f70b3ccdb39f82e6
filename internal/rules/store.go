package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrLastRule is returned when a delete would leave the rule set empty.
	ErrLastRule = errors.New("cannot delete the last rule")
	// ErrIndexOutOfRange is returned when no rule exists at the position.
	ErrIndexOutOfRange = errors.New("no rule at that index")
)

// Store persists a rule set as a JSON file and guards concurrent access
// from the settings API. Every mutation is saved immediately.
type Store struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
	set  *Set
}

// rawSet is the unmarshaling intermediary: the enabled flag uses a pointer
// so an absent key falls back to the default rather than false.
type rawSet struct {
	Rules   []Rule `json:"rules"`
	Enabled *bool  `json:"enabled"`
}

// NewStore creates a store backed by the given path. Call Load before use.
func NewStore(path string, log *slog.Logger) *Store {
	return &Store{path: path, log: log, set: Default()}
}

// Load reads the rules file, merging it over the defaults. A missing file
// yields the defaults. Rules that fail validation are dropped with a
// warning; if none survive, the defaults are restored.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = Default()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read rules file: %w", err)
	}

	var raw rawSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse rules file: %w", err)
	}

	if len(raw.Rules) > 0 {
		kept := make([]Rule, 0, len(raw.Rules))
		for _, r := range raw.Rules {
			if err := Validate(r); err != nil {
				s.log.Warn("dropping invalid rule", "tag", r.Tag, "error", err)
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) > 0 {
			s.set.Rules = kept
		} else {
			s.log.Warn("no valid rules in file, using defaults", "path", s.path)
		}
	}
	if raw.Enabled != nil {
		s.set.Enabled = *raw.Enabled
	}
	return nil
}

// Save writes the current rule set to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}
	data, err := json.MarshalIndent(s.set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Snapshot returns a copy of the current set, safe to resolve against
// while mutations happen concurrently.
func (s *Store) Snapshot() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := Set{
		Rules:   make([]Rule, len(s.set.Rules)),
		Enabled: s.set.Enabled,
	}
	copy(cp.Rules, s.set.Rules)
	return cp
}

// Append validates and adds a rule at the end of the priority order.
func (s *Store) Append(r Rule) error {
	if err := Validate(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Rules = append(s.set.Rules, r)
	return s.saveLocked()
}

// Replace validates and swaps the rule at the given position.
func (s *Store) Replace(index int, r Rule) error {
	if err := Validate(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.set.Rules) {
		return fmt.Errorf("index %d: %w", index, ErrIndexOutOfRange)
	}
	s.set.Rules[index] = r
	return s.saveLocked()
}

// Delete removes the rule at the given position. The last remaining rule
// cannot be deleted.
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.set.Rules) {
		return fmt.Errorf("index %d: %w", index, ErrIndexOutOfRange)
	}
	if len(s.set.Rules) == 1 {
		return ErrLastRule
	}
	s.set.Rules = append(s.set.Rules[:index], s.set.Rules[index+1:]...)
	return s.saveLocked()
}

// Enabled reports the persisted global flag.
func (s *Store) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Enabled
}

// SetEnabled updates and persists the global flag.
func (s *Store) SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Enabled = enabled
	return s.saveLocked()
}
