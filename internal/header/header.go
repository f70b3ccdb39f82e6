package header

import "strings"

// Delimiter is the fixed marker line that opens and closes a metadata
// header block at the very start of a note.
const Delimiter = "---"

// Block is a parsed metadata header.
type Block struct {
	Content string // text between the delimiter lines, exclusive
	Raw     string // delimiter lines plus content plus trailing newline
}

// Extract returns the header block of a note. A block is recognized only
// when the first line consists solely of the delimiter and a later line
// consists solely of the delimiter. Raw is cut so that the note body is
// exactly full[len(Raw):].
func Extract(full string) (Block, bool) {
	line, next := lineAt(full, 0)
	if strings.TrimRight(line, "\r") != Delimiter {
		return Block{}, false
	}

	contentStart := next
	pos := next
	for pos < len(full) {
		line, n := lineAt(full, pos)
		if strings.TrimRight(line, "\r") == Delimiter {
			return Block{
				Content: full[contentStart:pos],
				Raw:     full[:n],
			}, true
		}
		pos = n
	}
	return Block{}, false
}

// Body strips the header block from a note, or returns the note unchanged
// when no header is present.
func Body(full string) string {
	if blk, ok := Extract(full); ok {
		return full[len(blk.Raw):]
	}
	return full
}

// Tags extracts the tag list from header content. Three sub-formats are
// supported on the "tags:" line: an inline bracketed list, plain inline
// text split on commas, or an empty remainder followed by indented dash
// items. The dash section ends at the first non-empty line that is not
// indented.
func Tags(content string) []string {
	var tags []string
	inSection := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if !inSection {
			rest, ok := strings.CutPrefix(trimmed, "tags:")
			if !ok {
				continue
			}
			rest = strings.TrimSpace(rest)
			if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
				return splitTags(rest[1 : len(rest)-1])
			}
			if rest != "" {
				return splitTags(rest)
			}
			inSection = true
			continue
		}

		if after, ok := strings.CutPrefix(trimmed, "-"); ok {
			tags = append(tags, strings.TrimSpace(after))
			continue
		}
		if trimmed != "" && !strings.HasPrefix(line, " ") {
			break
		}
		// Blank or indented non-dash lines keep the section open but
		// contribute nothing.
	}
	return tags
}

func splitTags(list string) []string {
	parts := strings.Split(list, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}

// lineAt returns the line starting at pos without its newline, and the
// offset just past the newline (or len(s) when the line is unterminated).
func lineAt(s string, pos int) (string, int) {
	if i := strings.IndexByte(s[pos:], '\n'); i >= 0 {
		return s[pos : pos+i], pos + i + 1
	}
	return s[pos:], len(s)
}
