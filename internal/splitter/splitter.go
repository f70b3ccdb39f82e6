// Package splitter partitions an imported outline into parts whose bodies
// fit under a character budget, so every note an import produces starts
// out below the hard limit of the rule that will govern it.
package splitter

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/taglimit/internal/outline"
)

// Config controls splitting behavior. Budgets are in characters (runes),
// matching how the policy engine counts.
type Config struct {
	MaxChars int // target maximum part size
	MinPart  int // parts smaller than this are dropped
}

// DefaultConfig returns sensible defaults for standalone use.
func DefaultConfig() Config {
	return Config{MaxChars: 500, MinPart: 1}
}

// Part is one note-sized piece of an outline.
type Part struct {
	Text  string   // part body
	Index int      // sequence number within the import
	Trail []string // heading hierarchy leading to this part
}

// Split walks an outline and produces budget-sized parts. Parts never
// overlap: they partition the content exactly, since together they
// replace the original document.
func Split(o *outline.Outline, cfg Config) []Part {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 500
	}
	if cfg.MinPart <= 0 {
		cfg.MinPart = 1
	}

	var parts []Part
	index := 0
	for _, sec := range o.Sections {
		index = walkSection(sec, nil, cfg, &parts, index)
	}
	return parts
}

func walkSection(sec *outline.Section, trail []string, cfg Config, parts *[]Part, index int) int {
	var tr []string
	tr = append(tr, trail...)
	if sec.Title != "" {
		tr = append(tr, sec.Title)
	}

	if sec.Text != "" {
		if utf8.RuneCountInString(sec.Text) <= cfg.MaxChars {
			if utf8.RuneCountInString(sec.Text) >= cfg.MinPart {
				*parts = append(*parts, Part{Text: sec.Text, Index: index, Trail: copyTrail(tr)})
				index++
			}
		} else {
			for _, piece := range splitText(sec.Text, cfg.MaxChars) {
				if utf8.RuneCountInString(piece) >= cfg.MinPart {
					*parts = append(*parts, Part{Text: piece, Index: index, Trail: copyTrail(tr)})
					index++
				}
			}
		}
	}

	for _, child := range sec.Sections {
		index = walkSection(child, tr, cfg, parts, index)
	}
	return index
}

// splitText breaks text into pieces of at most maxChars, preferring
// paragraph boundaries, then sentence boundaries, then hard rune cuts.
func splitText(text string, maxChars int) []string {
	var result []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			result = append(result, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, para := range splitByParagraphs(text) {
		paraLen := utf8.RuneCountInString(para)

		if paraLen > maxChars {
			flush()
			result = append(result, splitBySentences(para, maxChars)...)
			continue
		}

		// +2 accounts for the paragraph separator.
		if currentLen > 0 && currentLen+2+paraLen > maxChars {
			flush()
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(para)
		currentLen += paraLen
	}
	flush()

	return result
}

func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks an oversized paragraph at sentence boundaries,
// hard-cutting any single sentence that alone exceeds the budget.
func splitBySentences(text string, maxChars int) []string {
	var result []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			result = append(result, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, sent := range splitSentences(text) {
		sentLen := utf8.RuneCountInString(sent)

		if sentLen > maxChars {
			flush()
			result = append(result, hardCut(sent, maxChars)...)
			continue
		}
		if currentLen > 0 && currentLen+1+sentLen > maxChars {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(" ")
			currentLen++
		}
		current.WriteString(sent)
		currentLen += sentLen
	}
	flush()

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}
	return sentences
}

// hardCut slices text into raw rune windows of maxChars.
func hardCut(text string, maxChars int) []string {
	runes := []rune(text)
	var result []string
	for start := 0; start < len(runes); start += maxChars {
		end := min(start+maxChars, len(runes))
		result = append(result, string(runes[start:end]))
	}
	return result
}

func copyTrail(tr []string) []string {
	out := make([]string, len(tr))
	copy(out, tr)
	return out
}
