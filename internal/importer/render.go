package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/taglimit/internal/outline"
	"github.com/dgallion1/taglimit/internal/splitter"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9-]`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a safe filename stem.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// renderHeader builds a frontmatter block. Tags use the bracketed list
// form so the resolver's header parser picks them up.
func renderHeader(title string, tags []string) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	if title != "" {
		sb.WriteString("title: ")
		sb.WriteString(title)
		sb.WriteString("\n")
	}
	if len(tags) > 0 {
		sb.WriteString("tags: [")
		sb.WriteString(strings.Join(tags, ", "))
		sb.WriteString("]\n")
	}
	sb.WriteString("---\n")
	return sb.String()
}

// RenderNote renders a whole outline as one markdown note.
func RenderNote(o *outline.Outline, title string, tags []string) string {
	var sb strings.Builder
	sb.WriteString(renderHeader(title, tags))

	var walk func(secs []*outline.Section, depth int)
	walk = func(secs []*outline.Section, depth int) {
		for _, sec := range secs {
			if sec.Title != "" {
				sb.WriteString("\n")
				sb.WriteString(strings.Repeat("#", min(depth, 6)))
				sb.WriteString(" ")
				sb.WriteString(sec.Title)
				sb.WriteString("\n")
			}
			if sec.Text != "" {
				sb.WriteString("\n")
				sb.WriteString(sec.Text)
				sb.WriteString("\n")
			}
			walk(sec.Sections, depth+1)
		}
	}
	walk(o.Sections, 1)
	return sb.String()
}

// RenderPart renders one split part as a standalone note. The heading
// trail is kept as a single breadcrumb line so the origin of the part
// stays visible in the note itself.
func RenderPart(p splitter.Part, title string, tags []string) string {
	var sb strings.Builder
	sb.WriteString(renderHeader(title, tags))
	if len(p.Trail) > 0 {
		sb.WriteString("\n> ")
		sb.WriteString(strings.Join(p.Trail, " / "))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(p.Text)
	sb.WriteString("\n")
	return sb.String()
}

// partTitle derives a note title for part n of a split import.
func partTitle(base string, n, total int) string {
	if total <= 1 {
		return base
	}
	return fmt.Sprintf("%s (part %d)", base, n+1)
}
