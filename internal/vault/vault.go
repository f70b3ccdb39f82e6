// Package vault is the concrete document surface: a directory of markdown
// notes read and written whole-file, plus a change-notification stream
// over it.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Vault is a watched directory of notes. Controller rewrites record a
// content hash so the resulting filesystem notification can be recognized
// as self-induced and dropped.
type Vault struct {
	dir string
	log *slog.Logger

	mu         sync.Mutex
	selfWrites map[string]string // absolute note path -> content hash
}

func Open(dir string, log *slog.Logger) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path %s is not a directory", abs)
	}
	return &Vault{
		dir:        abs,
		log:        log,
		selfWrites: make(map[string]string),
	}, nil
}

func (v *Vault) Dir() string { return v.dir }

// Notes lists all markdown note paths in the vault, relative walk order.
func (v *Vault) Notes() ([]string, error) {
	var notes []string
	err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != v.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") {
			notes = append(notes, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Buffer returns the text surface for one note path.
func (v *Vault) Buffer(path string) *NoteBuffer {
	return &NoteBuffer{vault: v, path: path}
}

// BufferByID returns the surface for a note identified by its vault-relative
// ID, rejecting IDs that escape the vault directory.
func (v *Vault) BufferByID(id string) (*NoteBuffer, error) {
	path := filepath.Join(v.dir, filepath.FromSlash(id))
	if !strings.HasPrefix(path, v.dir+string(filepath.Separator)) {
		return nil, fmt.Errorf("note id %q escapes the vault", id)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("note %q: %w", id, err)
	}
	return v.Buffer(path), nil
}

// CreateNote writes a brand new note. The write is deliberately not
// recorded as a self-write: the watcher should pick it up so the
// controller evaluates the new note. Name collisions get a numeric suffix.
func (v *Vault) CreateNote(name, content string) (string, error) {
	base := strings.TrimSuffix(name, ".md")
	path := filepath.Join(v.dir, base+".md")
	for i := 2; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(v.dir, fmt.Sprintf("%s-%d.md", base, i))
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return path, nil
}

// ContentHashes maps the hash of every existing note's content to its
// path, used for duplicate detection on import.
func (v *Vault) ContentHashes() (map[string]string, error) {
	notes, err := v.Notes()
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(notes))
	for _, path := range notes {
		data, err := os.ReadFile(path)
		if err != nil {
			v.log.Warn("hash note", "path", path, "error", err)
			continue
		}
		hashes[HashHex(data)] = path
	}
	return hashes, nil
}

// ConsumeSelfWrite reports whether the current content of the note matches
// the last controller write, consuming the record. The watcher calls this
// on every event to drop the notification caused by the rewrite itself.
func (v *Vault) ConsumeSelfWrite(path string) bool {
	v.mu.Lock()
	want, ok := v.selfWrites[path]
	v.mu.Unlock()
	if !ok {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if HashHex(data) != want {
		// The note changed again after our write: a real edit.
		return false
	}

	v.mu.Lock()
	delete(v.selfWrites, path)
	v.mu.Unlock()
	return true
}

func (v *Vault) recordSelfWrite(path, content string) {
	v.mu.Lock()
	v.selfWrites[path] = HashHex([]byte(content))
	v.mu.Unlock()
}

// HashHex returns the SHA-256 hex digest of data.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NoteBuffer is the whole-file get/set surface for a single note.
type NoteBuffer struct {
	vault *Vault
	path  string
}

// ID is the vault-relative note path in slash form.
func (b *NoteBuffer) ID() string {
	rel, err := filepath.Rel(b.vault.dir, b.path)
	if err != nil {
		return b.path
	}
	return filepath.ToSlash(rel)
}

// Path is the absolute note path.
func (b *NoteBuffer) Path() string { return b.path }

func (b *NoteBuffer) Value() (string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}
	return string(data), nil
}

// SetValue replaces the entire note content and records the write for
// self-notification suppression.
func (b *NoteBuffer) SetValue(s string) error {
	b.vault.recordSelfWrite(b.path, s)
	if err := os.WriteFile(b.path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	return nil
}
