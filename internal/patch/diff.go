package patch

import (
	"fmt"
	"strings"
)

// contextLines is the number of unchanged lines included on each side of
// a rendered hunk.
const contextLines = 3

// renderDiff produces a single-hunk unified diff replacing the inclusive
// body-relative span [start, end] with repl.
func renderDiff(old []string, start, end int, repl []string) string {
	ctxFrom := start - 1 - contextLines
	if ctxFrom < 0 {
		ctxFrom = 0
	}
	ctxTo := end + contextLines
	if ctxTo > len(old) {
		ctxTo = len(old)
	}

	before := old[ctxFrom : start-1]
	removed := old[start-1 : end]
	after := old[end:ctxTo]

	oldStart := ctxFrom + 1
	oldCount := len(before) + len(removed) + len(after)
	newStart := oldStart
	newCount := len(before) + len(repl) + len(after)
	if newCount == 0 {
		// Convention: a zero-count hunk is addressed at the preceding line.
		newStart = oldStart - 1
	}

	var b strings.Builder
	b.WriteString("--- a/doc.md\n")
	b.WriteString("+++ b/doc.md\n")
	fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	for _, l := range before {
		b.WriteString(" " + l + "\n")
	}
	for _, l := range removed {
		b.WriteString("-" + l + "\n")
	}
	for _, l := range repl {
		b.WriteString("+" + l + "\n")
	}
	for _, l := range after {
		b.WriteString(" " + l + "\n")
	}
	return b.String()
}
