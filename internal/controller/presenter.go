package controller

import (
	"log/slog"
	"sync"
)

// StatusBoard is the in-memory presentation surface: it holds the current
// warning per note and is what the status API reads. The warning for a
// note is a single element — showing a new one replaces the previous.
type StatusBoard struct {
	mu       sync.Mutex
	warnings map[string]string
	log      *slog.Logger
}

func NewStatusBoard(log *slog.Logger) *StatusBoard {
	return &StatusBoard{
		warnings: make(map[string]string),
		log:      log,
	}
}

func (b *StatusBoard) ShowWarning(noteID, text string) {
	b.mu.Lock()
	b.warnings[noteID] = text
	b.mu.Unlock()
	b.log.Info("warning", "note", noteID, "text", text)
}

func (b *StatusBoard) ClearWarning(noteID string) {
	b.mu.Lock()
	_, had := b.warnings[noteID]
	delete(b.warnings, noteID)
	b.mu.Unlock()
	if had {
		b.log.Info("warning cleared", "note", noteID)
	}
}

func (b *StatusBoard) ClearAll() {
	b.mu.Lock()
	b.warnings = make(map[string]string)
	b.mu.Unlock()
	b.log.Info("all warnings cleared")
}

// Warning returns the current warning text for a note, if any.
func (b *StatusBoard) Warning(noteID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, ok := b.warnings[noteID]
	return text, ok
}

// Warnings returns a copy of all current warnings keyed by note.
func (b *StatusBoard) Warnings() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make(map[string]string, len(b.warnings))
	for k, v := range b.warnings {
		cp[k] = v
	}
	return cp
}

// LogNotifier emits transient user messages to the log.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(text string) {
	n.Log.Info("notice", "text", text)
}
