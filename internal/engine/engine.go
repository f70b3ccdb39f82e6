// Package engine implements the length policy decision for a single note
// evaluation: given the resolved rule and the current content, it computes
// the content mutation and presentation actions without applying them.
package engine

import (
	"fmt"
	"strings"

	"github.com/dgallion1/taglimit/internal/header"
	"github.com/dgallion1/taglimit/internal/rules"
)

// Overflow markers wrap the body region beyond the hard limit under soft
// enforcement. Stripping both markers restores the plain body.
const (
	OverflowOpen  = `<mark class="overflow">`
	OverflowClose = `</mark>`
)

// WarningAction tells the caller what to do with the warning affordance.
type WarningAction int

const (
	// WarningKeep leaves any existing warning untouched (truncation cycle).
	WarningKeep WarningAction = iota
	// WarningShow shows or replaces the warning with WarningText.
	WarningShow
	// WarningHide removes any existing warning.
	WarningHide
)

// Result is one evaluation outcome.
type Result struct {
	Text        string        // full replacement text (header + body)
	Changed     bool          // Text differs from the input
	Truncated   bool          // body was cut to the hard limit
	Overflowed  bool          // body beyond the hard limit was marked
	Notice      string        // transient user message, empty if none
	Warning     WarningAction
	WarningText string
	BodyLength  int // observed body length to carry into the next evaluation
}

// StripOverflow removes overflow markers from text.
func StripOverflow(s string) string {
	s = strings.ReplaceAll(s, OverflowOpen, "")
	return strings.ReplaceAll(s, OverflowClose, "")
}

// Evaluate applies the rule's length policy to the note content. Length is
// counted in runes over the body only (header block excluded). Existing
// overflow markers are stripped before counting so repeated evaluations are
// idempotent. lastBodyLen is the body length observed by the previous
// evaluation; it distinguishes the edit that crosses the hard limit (which
// emits a notice) from re-enforcement of an already-over body.
func Evaluate(full string, rule rules.Rule, lastBodyLen int) Result {
	var raw string
	body := full
	if blk, ok := header.Extract(full); ok {
		raw = blk.Raw
		body = full[len(blk.Raw):]
	}
	body = StripOverflow(body)
	runes := []rune(body)
	length := len(runes)

	if rule.Enforce && length > rule.HardLimit {
		text := raw + string(runes[:rule.HardLimit])
		res := Result{
			Text:       text,
			Changed:    text != full,
			Truncated:  true,
			Warning:    WarningKeep,
			BodyLength: rule.HardLimit,
		}
		if lastBodyLen <= rule.HardLimit {
			res.Notice = fmt.Sprintf("Cannot exceed %d characters when using #%s", rule.HardLimit, rule.Tag)
		}
		return res
	}

	res := Result{
		Text:       raw + body,
		BodyLength: length,
	}

	if length > rule.WarningLimit {
		res.Warning = WarningShow
		mode := "until color change"
		if rule.Enforce {
			mode = "before limit"
		}
		// Remaining count is measured against the hard limit and may be
		// negative under soft overflow: it signals overflow magnitude.
		res.WarningText = fmt.Sprintf("%d characters remaining %s (%s rule)", rule.HardLimit-length, mode, rule.Tag)
	} else {
		res.Warning = WarningHide
	}

	if !rule.Enforce && length > rule.HardLimit {
		res.Overflowed = true
		res.Text = raw + string(runes[:rule.HardLimit]) + OverflowOpen + string(runes[rule.HardLimit:]) + OverflowClose
	}

	res.Changed = res.Text != full
	return res
}
