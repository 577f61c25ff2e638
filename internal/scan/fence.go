// Package scan provides the lexical passes over a document body: fenced
// code block tracking, anchor resolution, and checklist extraction. It is
// the minimal line-level model the engine uses instead of a Markdown AST.
package scan

import "strings"

// Span is an inclusive range of body-relative line numbers.
type Span struct {
	Start int
	End   int
}

// FenceMap records which body lines lie inside fenced code blocks, as
// ordered non-overlapping spans. Fence delimiter lines themselves count as
// inside the fence.
type FenceMap []Span

// Contains reports whether the 1-based body line lies inside a fence.
func (m FenceMap) Contains(line int) bool {
	for _, s := range m {
		if line < s.Start {
			return false
		}
		if line <= s.End {
			return true
		}
	}
	return false
}

// Fences scans body lines in a single forward pass and returns the fence
// map. A line opening with three or more backticks or tildes starts a
// fence; only a closing run of the same marker character ends it (first
// marker wins). An unterminated fence closes implicitly at the last line.
func Fences(lines []string) FenceMap {
	var out FenceMap
	var marker byte
	start := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if marker == 0 {
			if m, ok := fenceOpen(trimmed); ok {
				marker = m
				start = i + 1
			}
			continue
		}
		if fenceClose(trimmed, marker) {
			out = append(out, Span{Start: start, End: i + 1})
			marker = 0
		}
	}
	if marker != 0 {
		out = append(out, Span{Start: start, End: len(lines)})
	}
	return out
}

// fenceOpen reports whether a trimmed line opens a fence and with which
// marker character. An info string after the marker run is allowed.
func fenceOpen(trimmed string) (byte, bool) {
	for _, marker := range []byte{'`', '~'} {
		n := runLen(trimmed, marker)
		if n >= 3 {
			return marker, true
		}
	}
	return 0, false
}

// fenceClose reports whether a trimmed line closes a fence opened with
// marker: a run of three or more marker characters and nothing else.
func fenceClose(trimmed string, marker byte) bool {
	n := runLen(trimmed, marker)
	return n >= 3 && n == len(trimmed)
}

func runLen(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}
