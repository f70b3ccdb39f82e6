package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/taglimit/internal/header"
	"github.com/dgallion1/taglimit/internal/outline"
)

// MarkdownParser handles markdown files using goldmark. A metadata header
// at the start of the file is pulled off before parsing; its tag list is
// carried on the outline so imported notes keep their tags.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	o := &outline.Outline{Title: titleFromFilename(filename)}

	content := string(raw)
	if blk, ok := header.Extract(content); ok {
		o.Tags = header.Tags(blk.Content)
		content = content[len(blk.Raw):]
	}
	src := []byte(content)

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	b := newSectionBuilder(o.Title)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.Heading(node.Level, string(node.Text(src)))
		default:
			b.Text(extractText(n, src))
		}
	}
	o.Sections = b.Sections()

	return o, nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	// Also handle inline children.
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
