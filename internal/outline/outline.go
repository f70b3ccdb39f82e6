// Package outline holds the structured content of an imported document on
// its way to becoming one or more vault notes.
package outline

// Outline is the root of a parsed import.
type Outline struct {
	Title    string     // document title (from metadata or filename)
	Tags     []string   // tags carried by the source document, if any
	Sections []*Section // top-level sections
}

// Section is a recursive region of the document.
type Section struct {
	Title    string     // section heading (empty for leaf text)
	Text     string     // text content (may be empty for container sections)
	Page     int        // source page (0 if N/A)
	Sections []*Section // subsections
}

// FlatText joins all section text in document order, used for content
// hashing and duplicate detection.
func (o *Outline) FlatText() string {
	var out []byte
	var walk func(sections []*Section)
	walk = func(sections []*Section) {
		for _, s := range sections {
			if s.Text != "" {
				if len(out) > 0 {
					out = append(out, '\n')
				}
				out = append(out, s.Text...)
			}
			walk(s.Sections)
		}
	}
	walk(o.Sections)
	return string(out)
}
