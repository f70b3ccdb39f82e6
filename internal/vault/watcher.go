package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is one debounced note change notification.
type Event struct {
	Path string
}

// Watcher turns filesystem notifications over the vault into a serialized
// stream of note change events. Rapid successive writes to the same note
// collapse into one event; events are dropped, not queued, when the
// consumer falls behind.
type Watcher struct {
	vault    *Vault
	debounce time.Duration
	log      *slog.Logger
}

func NewWatcher(v *Vault, debounce time.Duration, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{vault: v, debounce: debounce, log: log}
}

// Watch starts watching the vault tree and returns the event stream. The
// stream closes when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addTree(fw, w.vault.Dir()); err != nil {
		fw.Close()
		return nil, err
	}

	events := make(chan Event, 64)

	go func() {
		defer fw.Close()
		defer close(events)

		var mu sync.Mutex
		timers := make(map[string]*time.Timer)
		errAttempt := 0

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				errAttempt = 0

				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				// New directories join the watch.
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if ev.Op&fsnotify.Create != 0 && !strings.HasPrefix(filepath.Base(ev.Name), ".") {
						if err := fw.Add(ev.Name); err != nil {
							w.log.Warn("watch new dir", "dir", ev.Name, "error", err)
						}
					}
					continue
				}
				if !strings.HasSuffix(ev.Name, ".md") {
					continue
				}

				path := ev.Name
				mu.Lock()
				if t, ok := timers[path]; ok {
					t.Stop()
				}
				timers[path] = time.AfterFunc(w.debounce, func() {
					mu.Lock()
					delete(timers, path)
					mu.Unlock()
					select {
					case events <- Event{Path: path}:
					default:
						w.log.Warn("event channel full, dropping change", "path", path)
					}
				})
				mu.Unlock()

			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.Error("watcher error", "error", err)
				// Back off before re-adding the tree so a persistent
				// failure does not spin.
				select {
				case <-time.After(backoff(errAttempt)):
				case <-ctx.Done():
					return
				}
				errAttempt++
				if err := addTree(fw, w.vault.Dir()); err != nil {
					w.log.Error("re-add vault watch", "error", err)
				}
			}
		}
	}()

	return events, nil
}

// addTree watches the vault directory and all non-hidden subdirectories.
func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// backoff returns a capped exponential delay with jitter for attempt n.
func backoff(attempt int) time.Duration {
	if attempt > 5 {
		attempt = 5
	}
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
