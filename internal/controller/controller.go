// Package controller reacts to note change notifications: it resolves the
// active rule, runs the length policy engine, applies the resulting
// mutation back to the note, and updates presentation. A single
// IDLE/APPLYING state gates overlapping invocations so the controller
// never reacts while one of its own rewrites is in flight.
package controller

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/taglimit/internal/engine"
	"github.com/dgallion1/taglimit/internal/rules"
	"github.com/dgallion1/taglimit/internal/stats"
)

// Buffer is the opaque text surface of one note: whole-content get/set.
// SetValue replaces the entire content, which in a live editor resets the
// cursor and undo position — a carried-over trade-off.
type Buffer interface {
	ID() string
	Value() (string, error)
	SetValue(string) error
}

// Presenter renders and removes the warning affordance for a note.
type Presenter interface {
	ShowWarning(noteID, text string)
	ClearWarning(noteID string)
	ClearAll()
}

// Notifier delivers a transient user-facing message, fire-and-forget.
type Notifier interface {
	Notify(text string)
}

type state int

const (
	stateIdle state = iota
	stateApplying
)

// Controller holds all session state explicitly: no package-level
// singletons, so each test can own an isolated instance.
type Controller struct {
	mu      sync.Mutex
	state   state
	enabled bool
	lastLen map[string]int // per-note last observed body length

	store     *rules.Store
	presenter Presenter
	notifier  Notifier
	recorder  *stats.Recorder
	log       *slog.Logger
}

func New(store *rules.Store, p Presenter, n Notifier, rec *stats.Recorder, log *slog.Logger) *Controller {
	return &Controller{
		state:     stateIdle,
		enabled:   store.Enabled(),
		lastLen:   make(map[string]int),
		store:     store,
		presenter: p,
		notifier:  n,
		recorder:  rec,
		log:       log,
	}
}

// HandleChange processes one change notification. It reports whether the
// notification was handled; notifications arriving while disabled or while
// another evaluation is applying are dropped, not queued.
func (c *Controller) HandleChange(buf Buffer) bool {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return false
	}
	if c.state == stateApplying {
		c.mu.Unlock()
		c.recorder.RecordDrop()
		return false
	}
	c.state = stateApplying
	c.mu.Unlock()

	// The state must return to IDLE on every exit path, including panics,
	// or the controller would lock up permanently.
	defer func() {
		c.mu.Lock()
		c.state = stateIdle
		c.mu.Unlock()
	}()

	c.evaluate(buf)
	return true
}

func (c *Controller) evaluate(buf Buffer) {
	start := time.Now()

	full, err := buf.Value()
	if err != nil {
		c.log.Warn("read note", "note", buf.ID(), "error", err)
		return
	}

	set := c.store.Snapshot()
	rule, ok := set.Resolve(full)
	if !ok {
		c.presenter.ClearWarning(buf.ID())
		c.forget(buf.ID())
		// Idempotent restore: drops any overflow markup left behind by a
		// rule that no longer matches.
		if stripped := engine.StripOverflow(full); stripped != full {
			if err := buf.SetValue(stripped); err != nil {
				c.log.Error("restore note", "note", buf.ID(), "error", err)
			}
		}
		return
	}

	res := engine.Evaluate(full, rule, c.last(buf.ID()))
	c.remember(buf.ID(), res.BodyLength)

	if res.Changed {
		if err := buf.SetValue(res.Text); err != nil {
			c.log.Error("apply rewrite", "note", buf.ID(), "error", err)
		}
	}
	if res.Notice != "" {
		c.notifier.Notify(res.Notice)
	}
	switch res.Warning {
	case engine.WarningShow:
		c.presenter.ShowWarning(buf.ID(), res.WarningText)
	case engine.WarningHide:
		c.presenter.ClearWarning(buf.ID())
	}

	c.recorder.RecordEvaluation(time.Since(start), stats.Outcome{
		Truncated:    res.Truncated,
		Overflowed:   res.Overflowed,
		Noticed:      res.Notice != "",
		WarningShown: res.Warning == engine.WarningShow,
	})
	c.log.Debug("evaluated note",
		"note", buf.ID(),
		"tag", rule.Tag,
		"body_length", res.BodyLength,
		"truncated", res.Truncated,
		"overflowed", res.Overflowed,
	)
}

// Enabled reports the session flag.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled flips the global flag and persists it. Disabling clears every
// warning affordance and sweeps the given notes through one rewrite that
// strips leftover overflow markup. The sweep is best-effort.
func (c *Controller) SetEnabled(enabled bool, bufs []Buffer) error {
	c.mu.Lock()
	c.enabled = enabled
	c.mu.Unlock()

	if err := c.store.SetEnabled(enabled); err != nil {
		return err
	}
	if enabled {
		return nil
	}

	c.presenter.ClearAll()
	for _, buf := range bufs {
		full, err := buf.Value()
		if err != nil {
			c.log.Warn("read note during disable sweep", "note", buf.ID(), "error", err)
			continue
		}
		if stripped := engine.StripOverflow(full); stripped != full {
			if err := buf.SetValue(stripped); err != nil {
				c.log.Warn("strip markup during disable sweep", "note", buf.ID(), "error", err)
			}
		}
	}
	return nil
}

func (c *Controller) last(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLen[id]
}

func (c *Controller) remember(id string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastLen[id] = n
}

func (c *Controller) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastLen, id)
}
