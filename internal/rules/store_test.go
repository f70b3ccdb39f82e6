package rules

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	return NewStore(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStore_LoadMissingFileUsesDefaults(t *testing.T) {
	s := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	set := s.Snapshot()
	if len(set.Rules) != 1 || set.Rules[0].Tag != "atomic" {
		t.Errorf("expected default rule set, got %+v", set.Rules)
	}
	if !set.Enabled {
		t.Error("expected enabled by default")
	}
}

func TestStore_LoadMergesOverDefaults(t *testing.T) {
	s := testStore(t)
	content := `{"rules":[{"tag":"work","warning_limit":50,"hard_limit":80,"enforce":true}],"enabled":false}`
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	set := s.Snapshot()
	if len(set.Rules) != 1 || set.Rules[0].Tag != "work" || !set.Rules[0].Enforce {
		t.Errorf("unexpected rules: %+v", set.Rules)
	}
	if set.Enabled {
		t.Error("expected enabled=false from file")
	}
}

func TestStore_LoadDropsInvalidRules(t *testing.T) {
	s := testStore(t)
	content := `{"rules":[{"tag":"","warning_limit":0,"hard_limit":0},{"tag":"ok","warning_limit":1,"hard_limit":2}]}`
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	set := s.Snapshot()
	if len(set.Rules) != 1 || set.Rules[0].Tag != "ok" {
		t.Errorf("expected only the valid rule, got %+v", set.Rules)
	}
}

func TestStore_LoadRestoresDefaultsWhenNoRuleSurvives(t *testing.T) {
	s := testStore(t)
	content := `{"rules":[{"tag":"","warning_limit":-1,"hard_limit":-2}]}`
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	set := s.Snapshot()
	if len(set.Rules) != 1 || set.Rules[0].Tag != "atomic" {
		t.Errorf("expected defaults, got %+v", set.Rules)
	}
}

func TestStore_AppendSavesImmediately(t *testing.T) {
	s := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Rule{Tag: "work", WarningLimit: 10, HardLimit: 20}); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("expected rules file to exist: %v", err)
	}
	var saved Set
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("parse saved file: %v", err)
	}
	if len(saved.Rules) != 2 || saved.Rules[1].Tag != "work" {
		t.Errorf("unexpected saved rules: %+v", saved.Rules)
	}
}

func TestStore_AppendRejectsInvalid(t *testing.T) {
	s := testStore(t)
	if err := s.Append(Rule{Tag: "", WarningLimit: 0, HardLimit: 0}); err == nil {
		t.Error("expected validation error")
	}
}

func TestStore_DeleteLastRuleRefused(t *testing.T) {
	s := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	err := s.Delete(0)
	if !errors.Is(err, ErrLastRule) {
		t.Errorf("expected ErrLastRule, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Rule{Tag: "work", WarningLimit: 10, HardLimit: 20}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	set := s.Snapshot()
	if len(set.Rules) != 1 || set.Rules[0].Tag != "work" {
		t.Errorf("unexpected rules after delete: %+v", set.Rules)
	}
}

func TestStore_ReplaceOutOfRange(t *testing.T) {
	s := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if err := s.Replace(5, Rule{Tag: "x", WarningLimit: 1, HardLimit: 2}); err == nil {
		t.Error("expected index error")
	}
}

func TestStore_SetEnabledPersists(t *testing.T) {
	s := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetEnabled(false); err != nil {
		t.Fatalf("set enabled: %v", err)
	}

	reloaded := NewStore(s.path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if reloaded.Enabled() {
		t.Error("expected enabled=false after reload")
	}
}
