package controller

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/taglimit/internal/engine"
	"github.com/dgallion1/taglimit/internal/rules"
	"github.com/dgallion1/taglimit/internal/stats"
)

// memBuffer is an in-memory document surface for tests.
type memBuffer struct {
	mu      sync.Mutex
	id      string
	content string
	writes  int

	// onSet, when non-nil, runs while a SetValue is in flight, simulating
	// a change notification caused by the controller's own write.
	onSet func()
}

func (b *memBuffer) ID() string { return b.id }

func (b *memBuffer) Value() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content, nil
}

func (b *memBuffer) SetValue(s string) error {
	b.mu.Lock()
	b.content = s
	b.writes++
	cb := b.onSet
	b.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

type capturedNotices struct {
	mu      sync.Mutex
	notices []string
}

func (n *capturedNotices) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, text)
}

func (n *capturedNotices) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

func newTestController(t *testing.T, set []rules.Rule) (*Controller, *StatusBoard, *capturedNotices) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := rules.NewStore(filepath.Join(t.TempDir(), "rules.json"), log)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if set != nil {
		if err := store.Replace(0, set[0]); err != nil {
			t.Fatal(err)
		}
		for _, r := range set[1:] {
			if err := store.Append(r); err != nil {
				t.Fatal(err)
			}
		}
	}
	board := NewStatusBoard(log)
	notices := &capturedNotices{}
	ctrl := New(store, board, notices, stats.NewRecorder(time.Hour), log)
	return ctrl, board, notices
}

func TestHandleChange_NoMatchingRule(t *testing.T) {
	ctrl, board, _ := newTestController(t, nil)
	buf := &memBuffer{id: "a.md", content: strings.Repeat("x", 1000)}

	if !ctrl.HandleChange(buf) {
		t.Fatal("expected the change to be handled")
	}
	if buf.writes != 0 {
		t.Errorf("expected no mutation without a rule, got %d writes", buf.writes)
	}
	if _, ok := board.Warning("a.md"); ok {
		t.Error("expected no warning without a rule")
	}
}

func TestHandleChange_NoRuleStripsLeftoverMarkup(t *testing.T) {
	ctrl, _, _ := newTestController(t, nil)
	plain := "no tags here"
	buf := &memBuffer{id: "a.md", content: plain + engine.OverflowOpen + "tail" + engine.OverflowClose}

	ctrl.HandleChange(buf)
	if buf.content != plain+"tail" {
		t.Errorf("expected markup stripped, got %q", buf.content)
	}
}

func TestHandleChange_TruncatesAndNotifiesOnce(t *testing.T) {
	ctrl, _, notices := newTestController(t, []rules.Rule{
		{Tag: "atomic", WarningLimit: 10, HardLimit: 20, Enforce: true},
	})
	buf := &memBuffer{id: "a.md", content: "#atomic " + strings.Repeat("x", 30)}

	ctrl.HandleChange(buf)
	if got := len([]rune(buf.content)); got != 20 {
		t.Errorf("body length after truncation = %d, want 20", got)
	}
	if len(notices.all()) != 1 {
		t.Fatalf("expected one notice, got %v", notices.all())
	}

	// Re-evaluating the clamped note is a no-op.
	ctrl.HandleChange(buf)
	if len(notices.all()) != 1 {
		t.Errorf("expected no notice on idempotent re-evaluation, got %v", notices.all())
	}

	// Typing past the limit again crosses from the clamped length: that is
	// a fresh transition and notifies again.
	buf.content += strings.Repeat("y", 10)
	ctrl.HandleChange(buf)
	if got := len([]rune(buf.content)); got != 20 {
		t.Errorf("body length after re-enforcement = %d, want 20", got)
	}
	if len(notices.all()) != 2 {
		t.Errorf("expected a second notice on the new transition, got %v", notices.all())
	}
}

func TestHandleChange_WarningLifecycle(t *testing.T) {
	ctrl, board, _ := newTestController(t, []rules.Rule{
		{Tag: "atomic", WarningLimit: 15, HardLimit: 100, Enforce: true},
	})
	buf := &memBuffer{id: "a.md", content: "#atomic " + strings.Repeat("x", 20)}

	ctrl.HandleChange(buf)
	if _, ok := board.Warning("a.md"); !ok {
		t.Fatal("expected warning above the warning limit")
	}

	buf.content = "#atomic"
	ctrl.HandleChange(buf)
	if _, ok := board.Warning("a.md"); ok {
		t.Error("expected warning cleared after shrinking")
	}
}

func TestHandleChange_ReentrantNotificationDropped(t *testing.T) {
	ctrl, _, _ := newTestController(t, []rules.Rule{
		{Tag: "atomic", WarningLimit: 5, HardLimit: 10, Enforce: true},
	})

	var droppedDuringWrite bool
	buf := &memBuffer{id: "a.md", content: "#atomic " + strings.Repeat("x", 50)}
	buf.onSet = func() {
		// A notification caused by the controller's own write arrives
		// while the controller is still APPLYING: it must be dropped.
		droppedDuringWrite = !ctrl.HandleChange(buf)
	}

	if !ctrl.HandleChange(buf) {
		t.Fatal("outer change should be handled")
	}
	if !droppedDuringWrite {
		t.Error("expected the re-entrant notification to be dropped")
	}
}

func TestHandleChange_DisabledIgnoresChanges(t *testing.T) {
	ctrl, _, _ := newTestController(t, []rules.Rule{
		{Tag: "atomic", WarningLimit: 5, HardLimit: 10, Enforce: true},
	})
	buf := &memBuffer{id: "a.md", content: "#atomic " + strings.Repeat("x", 50)}

	if err := ctrl.SetEnabled(false, nil); err != nil {
		t.Fatal(err)
	}
	if ctrl.HandleChange(buf) {
		t.Error("expected change to be ignored while disabled")
	}
	if buf.writes != 0 {
		t.Error("expected no mutation while disabled")
	}
}

func TestSetEnabled_DisableClearsWarningsAndStripsMarkup(t *testing.T) {
	ctrl, board, _ := newTestController(t, []rules.Rule{
		{Tag: "atomic", WarningLimit: 5, HardLimit: 10, Enforce: false},
	})
	buf := &memBuffer{id: "a.md", content: "#atomic " + strings.Repeat("x", 20)}

	ctrl.HandleChange(buf)
	if _, ok := board.Warning("a.md"); !ok {
		t.Fatal("expected warning before disable")
	}
	if !strings.Contains(buf.content, engine.OverflowOpen) {
		t.Fatal("expected overflow markup before disable")
	}

	if err := ctrl.SetEnabled(false, []Buffer{buf}); err != nil {
		t.Fatal(err)
	}
	if _, ok := board.Warning("a.md"); ok {
		t.Error("expected warnings cleared on disable")
	}
	if strings.Contains(buf.content, engine.OverflowOpen) {
		t.Error("expected overflow markup stripped on disable")
	}
}

func TestHandleChange_LastLengthTrackedPerNote(t *testing.T) {
	ctrl, _, notices := newTestController(t, []rules.Rule{
		{Tag: "atomic", WarningLimit: 5, HardLimit: 10, Enforce: true},
	})
	a := &memBuffer{id: "a.md", content: "#atomic " + strings.Repeat("x", 30)}
	b := &memBuffer{id: "b.md", content: "#atomic " + strings.Repeat("y", 30)}

	ctrl.HandleChange(a)
	ctrl.HandleChange(b)
	// Both notes crossed the limit independently: two transition notices.
	if len(notices.all()) != 2 {
		t.Errorf("expected 2 notices, got %v", notices.all())
	}
}
