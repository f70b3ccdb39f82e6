package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/taglimit/internal/header"
)

// Rule binds a tag to a pair of character limits. Order in a Set defines
// priority: the first rule whose tag appears in a note governs it.
type Rule struct {
	Tag          string `json:"tag"`
	WarningLimit int    `json:"warning_limit"`
	HardLimit    int    `json:"hard_limit"`
	Enforce      bool   `json:"enforce"`
}

// Set is an ordered rule list plus the global enabled flag.
type Set struct {
	Rules   []Rule `json:"rules"`
	Enabled bool   `json:"enabled"`
}

// Default returns the rule set used when nothing has been persisted yet.
func Default() *Set {
	return &Set{
		Rules: []Rule{
			{Tag: "atomic", WarningLimit: 250, HardLimit: 500, Enforce: false},
		},
		Enabled: true,
	}
}

// Resolve returns the first rule whose tag appears in the note. For each
// rule in order, the inline "#tag" marker is checked first (case-sensitive
// substring, no word boundary), then membership in the header tag list for
// that same rule. Header parsing happens at most once per call.
func (s *Set) Resolve(fullText string) (Rule, bool) {
	var headerTags []string
	parsed := false

	for _, r := range s.Rules {
		if strings.Contains(fullText, "#"+r.Tag) {
			return r, true
		}
		if !parsed {
			parsed = true
			if blk, ok := header.Extract(fullText); ok {
				headerTags = header.Tags(blk.Content)
			}
		}
		for _, t := range headerTags {
			if t == r.Tag {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Validate rejects rules that would make threshold comparisons meaningless.
// This runs at the settings boundary only; Resolve and the policy engine
// assume rules that passed it.
func Validate(r Rule) error {
	if strings.TrimSpace(r.Tag) == "" {
		return errors.New("rule tag must not be empty")
	}
	if strings.HasPrefix(r.Tag, "#") {
		return errors.New("rule tag must not include the # prefix")
	}
	if r.WarningLimit < 0 {
		return fmt.Errorf("warning limit must not be negative, got %d", r.WarningLimit)
	}
	if r.HardLimit < r.WarningLimit {
		return fmt.Errorf("hard limit %d is below warning limit %d", r.HardLimit, r.WarningLimit)
	}
	return nil
}
