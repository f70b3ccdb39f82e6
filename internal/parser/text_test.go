package parser

import (
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	o, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", o.Title)
	}
	if len(o.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(o.Sections))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if o.Sections[i].Text != w {
			t.Errorf("section[%d]: expected %q, got %q", i, w, o.Sections[i].Text)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	o, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Sections) != 0 {
		t.Errorf("expected 0 sections for empty input, got %d", len(o.Sections))
	}
}

func TestTextParser_WhitespaceOnlyLinesAreBlank(t *testing.T) {
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	o, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(o.Sections))
	}
}

func TestForFile_UnsupportedExtension(t *testing.T) {
	if _, err := ForFile("archive.zip"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	cases := map[string]bool{
		"a.md":   true,
		"a.MD":   true,
		"a.docx": true,
		"a.zip":  false,
		"a":      false,
	}
	for name, want := range cases {
		if got := IsSupportedExtension(name); got != want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", name, got, want)
		}
	}
}
