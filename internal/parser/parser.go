// Package parser converts foreign document formats into outlines that the
// importer renders as vault notes.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/taglimit/internal/outline"
)

// Parser converts raw document bytes into an Outline.
type Parser interface {
	Parse(r io.Reader, filename string) (*outline.Outline, error)
}

// SupportedExtensions lists file extensions the importer can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// titleFromFilename strips the extension to form a default title.
func titleFromFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// sectionBuilder assembles an outline from a stream of headings and text
// blocks, nesting sections by heading level.
type sectionBuilder struct {
	root  *outline.Section
	stack []stackEntry
	text  strings.Builder
}

type stackEntry struct {
	section *outline.Section
	level   int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &outline.Section{Title: title}
	return &sectionBuilder{
		root:  root,
		stack: []stackEntry{{section: root, level: 0}},
	}
}

// Heading closes the pending text and opens a section at the given level.
func (b *sectionBuilder) Heading(level int, title string) {
	b.flush()
	sec := &outline.Section{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].section
	parent.Sections = append(parent.Sections, sec)
	b.stack = append(b.stack, stackEntry{section: sec, level: level})
}

// Text appends a text block to the pending buffer of the current section.
func (b *sectionBuilder) Text(t string) {
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	if t != "" {
		top := b.stack[len(b.stack)-1].section
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	b.text.Reset()
}

// Sections finishes the build. Headingless documents collapse into a
// single leaf section.
func (b *sectionBuilder) Sections() []*outline.Section {
	b.flush()
	if len(b.root.Sections) == 0 && b.root.Text != "" {
		return []*outline.Section{{Text: b.root.Text}}
	}
	return b.root.Sections
}
