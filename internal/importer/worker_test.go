package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/taglimit/internal/vault"
)

func testWorker(t *testing.T) (*Worker, *vault.Vault) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	v, err := vault.Open(t.TempDir(), log)
	if err != nil {
		t.Fatalf("open vault: %v", err)
	}
	return NewWorker(v, log, false), v
}

func newJob(filename string, data []byte) *Job {
	job := &Job{
		ID:        "job-1",
		Status:    StatusQueued,
		Filename:  filename,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData(data)
	return job
}

func TestWorkerImportsMarkdown(t *testing.T) {
	w, v := testWorker(t)

	job := newJob("reading-list.md", []byte("# Reading List\n\nSome books to read."))
	job.Tags = []string{"atomic"}
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, errors = %v", job.Status, job.Snapshot().Progress.Errors)
	}
	notes, err := v.Notes()
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note in vault, got %d", len(notes))
	}
	data, err := os.ReadFile(notes[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "tags: [atomic]") {
		t.Errorf("expected requested tag in note header:\n%s", data)
	}
	if !strings.Contains(string(data), "Some books to read.") {
		t.Error("expected body content in note")
	}
}

func TestWorkerMergesDocumentTags(t *testing.T) {
	w, v := testWorker(t)

	src := "---\ntags: [project]\n---\n# Plan\n\nShip it."
	job := newJob("plan.md", []byte(src))
	job.Tags = []string{"atomic", "project"}
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("status = %q", job.Status)
	}
	notes, _ := v.Notes()
	data, _ := os.ReadFile(notes[0])
	if !strings.Contains(string(data), "tags: [atomic, project]") {
		t.Errorf("expected merged deduplicated tags:\n%s", data)
	}
}

func TestWorkerSkipsDuplicate(t *testing.T) {
	w, v := testWorker(t)

	data := []byte("# Same\n\nIdentical content.")
	first := newJob("a.md", data)
	w.Process(context.Background(), first)
	if first.Status != StatusCompleted {
		t.Fatalf("first import: status = %q", first.Status)
	}

	second := newJob("a.md", data)
	second.ID = "job-2"
	w.Process(context.Background(), second)
	if second.Status != StatusDupSkipped {
		t.Fatalf("second import: status = %q, want %q", second.Status, StatusDupSkipped)
	}

	notes, _ := v.Notes()
	if len(notes) != 1 {
		t.Errorf("expected duplicate import to create no new notes, vault has %d", len(notes))
	}
}

func TestWorkerSplitsIntoParts(t *testing.T) {
	w, v := testWorker(t)

	body := strings.TrimSpace(strings.Repeat("A sentence of filler text here. ", 40))
	job := newJob("long.md", []byte("# Long Doc\n\n"+body))
	job.Split = true
	job.MaxChars = 200
	job.Tags = []string{"atomic"}
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, errors = %v", job.Status, job.Snapshot().Progress.Errors)
	}
	notes, _ := v.Notes()
	if len(notes) < 2 {
		t.Fatalf("expected split into multiple notes, got %d", len(notes))
	}
	snap := job.Snapshot()
	if snap.Progress.PartsWritten != len(notes) {
		t.Errorf("parts written = %d, vault notes = %d", snap.Progress.PartsWritten, len(notes))
	}
}

func TestWorkerRejectsUnsupportedFormat(t *testing.T) {
	w, _ := testWorker(t)

	job := newJob("archive.zip", []byte("not really"))
	w.Process(context.Background(), job)
	if job.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", job.Status, StatusFailed)
	}
	if len(job.Snapshot().Progress.Errors) == 0 {
		t.Error("expected an error to be recorded")
	}
}

func TestMergeTags(t *testing.T) {
	got := mergeTags([]string{"atomic", "work"}, []string{"work", "ideas", ""})
	want := []string{"atomic", "work", "ideas"}
	if len(got) != len(want) {
		t.Fatalf("mergeTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mergeTags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
