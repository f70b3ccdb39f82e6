package importer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/taglimit/internal/parser"
	"github.com/dgallion1/taglimit/internal/splitter"
	"github.com/dgallion1/taglimit/internal/vault"
)

// Worker processes a single import job.
type Worker struct {
	vault       *vault.Vault
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(v *vault.Vault, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{vault: v, log: log, pdfFallback: pdfFallback}
}

// Process runs the full import for a job: parse the upload, skip exact
// duplicates already in the vault, split to budget when asked, render
// and write the notes.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = w.pdfFallback
	}

	o, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		o.Title = job.Title
	}
	tags := mergeTags(job.Tags, o.Tags)

	// Content hash of the parsed text identifies the upload in job status.
	job.ContentHash = ContentHashHex([]byte(o.FlatText()))

	if ctx.Err() != nil {
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Split (optional).
	job.SetStatus(StatusSplitting, "splitting")
	var notes []string
	if job.Split {
		parts := splitter.Split(o, splitter.Config{MaxChars: job.MaxChars, MinPart: 1})
		if len(parts) == 0 {
			log.Warn("no content produced")
			job.AddError("no importable content")
			job.SetStatus(StatusFailed, "splitting")
			return
		}
		job.SetTotalParts(len(parts))
		for _, part := range parts {
			notes = append(notes, RenderPart(part, partTitle(o.Title, part.Index, len(parts)), tags))
		}
	} else {
		job.SetTotalParts(1)
		notes = append(notes, RenderNote(o, o.Title, tags))
	}

	// Phase 3: Write notes into the vault, skipping exact duplicates of
	// notes that are already there.
	job.SetStatus(StatusWriting, "writing")
	existing := w.existingHashes()
	written, skipped := 0, 0
	for i, content := range notes {
		if ctx.Err() != nil {
			job.AddError(ctx.Err().Error())
			break
		}
		if path, dup := existing[vault.HashHex([]byte(content))]; dup {
			log.Info("duplicate note, skipping", "existing_note", path)
			skipped++
			continue
		}
		name := Slugify(partTitle(o.Title, i, len(notes)))
		if name == "" {
			name = Slugify(job.Filename)
		}
		if name == "" {
			name = "imported-note"
		}
		id, err := w.vault.CreateNote(name, content)
		if err != nil {
			log.Error("write failed", "name", name, "error", err)
			job.AddError(fmt.Sprintf("write %s: %s", name, err))
			continue
		}
		job.AddNote(id)
		written++
	}

	log.Info("import complete", "written", written, "skipped", skipped, "total", len(notes))
	switch {
	case skipped == len(notes):
		job.SetStatus(StatusDupSkipped, "dedup")
	case written+skipped == len(notes):
		job.SetStatus(StatusCompleted, "done")
	case written > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "writing")
	}
}

// existingHashes returns the vault's content hash index, empty on error
// so a failed scan degrades to no dedup rather than a failed import.
func (w *Worker) existingHashes() map[string]string {
	hashes, err := w.vault.ContentHashes()
	if err != nil {
		w.log.Warn("dedup scan failed, proceeding", "error", err)
		return map[string]string{}
	}
	return hashes
}

// mergeTags combines request tags with tags found in the document's own
// header, preserving order and dropping duplicates.
func mergeTags(requested, found []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range append(append([]string{}, requested...), found...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
