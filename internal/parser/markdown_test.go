package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	o, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", o.Title)
	}
	if len(o.Sections) != 1 {
		t.Fatalf("expected 1 top-level section (h1), got %d", len(o.Sections))
	}

	h1 := o.Sections[0]
	if h1.Title != "Title" {
		t.Errorf("expected h1 title %q, got %q", "Title", h1.Title)
	}
	if !strings.Contains(h1.Text, "Intro text.") {
		t.Errorf("expected h1 text to contain intro, got %q", h1.Text)
	}
	if len(h1.Sections) != 2 {
		t.Fatalf("expected 2 h2 sections, got %d", len(h1.Sections))
	}

	secA := h1.Sections[0]
	if secA.Title != "Section A" {
		t.Errorf("expected %q, got %q", "Section A", secA.Title)
	}
	if len(secA.Sections) != 1 || secA.Sections[0].Title != "Subsection A1" {
		t.Errorf("expected one h3 subsection under Section A, got %+v", secA.Sections)
	}
	if h1.Sections[1].Title != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", h1.Sections[1].Title)
	}
}

func TestMarkdownParser_FrontmatterTagsCarried(t *testing.T) {
	input := "---\ntags: [atomic, work]\n---\n# Note\n\nBody text.\n"
	p := &MarkdownParser{}
	o, err := p.Parse(strings.NewReader(input), "note.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(o.Tags, []string{"atomic", "work"}) {
		t.Errorf("expected tags carried over, got %v", o.Tags)
	}
	// The header itself must not leak into section text.
	for _, s := range o.Sections {
		if strings.Contains(s.Text, "tags:") {
			t.Errorf("header leaked into section text: %q", s.Text)
		}
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := "Just some plain text.\n\nAnother paragraph here."
	p := &MarkdownParser{}
	o, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Sections) != 1 {
		t.Fatalf("expected 1 section for headingless markdown, got %d", len(o.Sections))
	}
	text := o.Sections[0].Text
	if !strings.Contains(text, "Just some plain text.") || !strings.Contains(text, "Another paragraph here.") {
		t.Errorf("expected both paragraphs collected, got %q", text)
	}
}

func TestMarkdownParser_CodeBlocksKept(t *testing.T) {
	input := "# API\n\n## Endpoints\n\n```\nGET /api/notes\n```\n\nMore text after code.\n"
	p := &MarkdownParser{}
	o, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	endpoints := o.Sections[0].Sections[0]
	if !strings.Contains(endpoints.Text, "GET /api/notes") {
		t.Errorf("expected code block content, got %q", endpoints.Text)
	}
	if !strings.Contains(endpoints.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", endpoints.Text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	o, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Sections) != 0 {
		t.Errorf("expected 0 sections for empty input, got %d", len(o.Sections))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		o, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if o.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, o.Title)
		}
	}
}
