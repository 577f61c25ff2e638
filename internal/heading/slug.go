package heading

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slug converts header text into a GitHub-style anchor slug: NFKD
// normalize, drop combining marks and symbol/emoji code points,
// lowercase, collapse runs of disallowed characters and whitespace into
// single hyphens, trim leading/trailing hyphens. Underscores and literal
// hyphens are preserved.
func Slug(text string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range norm.NFKD.String(text) {
		if unicode.Is(unicode.Mn, r) {
			// Combining mark left over from decomposition: the base
			// letter already went through, so accents fold to ASCII.
			continue
		}
		if unicode.IsSymbol(r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return strings.Trim(b.String(), "-")
}

// Slugger deduplicates slugs within a single generation pass: the first
// occurrence keeps the bare slug, repeats get "-1", "-2", ... suffixes in
// document order.
type Slugger struct {
	counts map[string]int
}

// NewSlugger creates an empty per-document slug deduplicator.
func NewSlugger() *Slugger {
	return &Slugger{counts: make(map[string]int)}
}

// Slug returns the deduplicated slug for header text.
func (s *Slugger) Slug(text string) string {
	base := Slug(text)
	n := s.counts[base]
	s.counts[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
