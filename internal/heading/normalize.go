// Package heading implements header canonicalization, GitHub-style
// slugging, and table-of-contents generation over a document body.
package heading

import (
	"strings"

	"github.com/paxocial/scribe/internal/scan"
)

// Normalize rewrites headers into canonical ATX form: a run of one to six
// hashes, a single space, then the trimmed header text. ATX headers with
// or without a space after the hashes and Setext headers ("===" / "---"
// underlines) are both recognized. Lines inside fences pass through
// unchanged. Normalize is idempotent: running it on its own output is a
// no-op.
func Normalize(lines []string, fences scan.FenceMap) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		n := i + 1
		if fences.Contains(n) {
			out = append(out, lines[i])
			continue
		}

		// Setext: a text line followed by an underline collapses into one
		// ATX line, consuming the underline.
		if i+1 < len(lines) && !fences.Contains(n+1) {
			if lvl := setextLevel(lines[i+1]); lvl > 0 && setextCandidate(lines[i]) {
				out = append(out, strings.Repeat("#", lvl)+" "+strings.TrimSpace(lines[i]))
				i++
				continue
			}
		}

		if level, text, ok := parseATX(lines[i]); ok && text != "" {
			out = append(out, strings.Repeat("#", level)+" "+text)
			continue
		}

		out = append(out, lines[i])
	}
	return out
}

// parseATX recognizes an ATX header line, with or without a space after
// the hash run. Four or more leading spaces make an indented code block,
// and a run of more than six hashes is plain text.
func parseATX(line string) (level int, text string, ok bool) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > 3 {
		return 0, "", false
	}
	rest := line[indent:]
	hashes := 0
	for hashes < len(rest) && rest[hashes] == '#' {
		hashes++
	}
	if hashes < 1 || hashes > 6 {
		return 0, "", false
	}
	return hashes, strings.TrimSpace(rest[hashes:]), true
}

// setextLevel returns 1 for an "=" underline, 2 for a "-" underline, and
// 0 for anything else. Underlines need at least two marker characters.
func setextLevel(line string) int {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 {
		return 0
	}
	switch {
	case strings.Count(trimmed, "=") == len(trimmed):
		return 1
	case strings.Count(trimmed, "-") == len(trimmed):
		return 2
	}
	return 0
}

// setextCandidate reports whether a line can be Setext header text: a
// non-blank paragraph line that is not already a header, an underline, a
// list item, or a quote.
func setextCandidate(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	if setextLevel(line) > 0 {
		return false
	}
	for _, p := range []string{"- ", "* ", "+ ", "> "} {
		if strings.HasPrefix(trimmed, p) {
			return false
		}
	}
	return true
}
