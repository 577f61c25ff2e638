package scan

import (
	"strings"

	"github.com/paxocial/scribe/internal/apperr"
)

// Match locates a resolved anchor in the body.
type Match struct {
	// Line is the body-relative line number of the match.
	Line int
	// Text is the full matched line.
	Text string
}

// ResolveAnchor finds the body line containing anchor as a literal
// substring. Lines inside fences are skipped unless includeFenced is set.
// Zero matches or more than one match are structured errors; the
// ambiguous case carries every matching line so the caller can switch to
// a range edit.
func ResolveAnchor(lines []string, fences FenceMap, anchor string, includeFenced bool) (Match, error) {
	if anchor == "" {
		return Match{}, apperr.New(apperr.CodeAnchorNotFound, "anchor text is empty")
	}

	var matches []Match
	for i, line := range lines {
		n := i + 1
		if !includeFenced && fences.Contains(n) {
			continue
		}
		if strings.Contains(line, anchor) {
			matches = append(matches, Match{Line: n, Text: line})
		}
	}

	switch len(matches) {
	case 0:
		return Match{}, apperr.New(apperr.CodeAnchorNotFound, "anchor %q not found in document body", anchor)
	case 1:
		return matches[0], nil
	default:
		nums := make([]int, len(matches))
		for i, m := range matches {
			nums[i] = m.Line
		}
		return Match{}, apperr.Ambiguous("anchor matches multiple lines; use replace_range to disambiguate", nums)
	}
}
