package patch

import (
	"fmt"
	"strings"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/scan"
)

// Compile resolves an edit intent against the current body into a concrete
// line-span replacement and renders it as a unified diff. Anchor
// resolution errors propagate unchanged.
func Compile(lines []string, fences scan.FenceMap, in Intent) (*Patch, error) {
	var start, end int
	var content string

	switch it := in.(type) {
	case ReplaceRange:
		if it.StartLine < 1 || it.EndLine < it.StartLine || it.EndLine > len(lines) {
			return nil, apperr.New(apperr.CodeInvalidRange,
				"range %d..%d outside body of %d lines", it.StartLine, it.EndLine, len(lines))
		}
		start, end, content = it.StartLine, it.EndLine, it.Content

	case ReplaceBlock:
		m, err := scan.ResolveAnchor(lines, fences, it.Anchor, false)
		if err != nil {
			return nil, err
		}
		start = m.Line
		end = blockEnd(lines, start)
		content = it.Content

	case ReplaceSection:
		var err error
		start, end, err = sectionSpan(lines, it.AnchorID)
		if err != nil {
			return nil, err
		}
		content = it.Content

	default:
		return nil, apperr.New(apperr.CodeInvalidRequest, "unknown edit intent %T", in)
	}

	diff := renderDiff(lines, start, end, contentLines(content))
	return &Patch{origin: OriginStructured, diff: diff}, nil
}

// blockEnd returns the last line of the block starting at start: the line
// before the next blank line, or the last body line.
func blockEnd(lines []string, start int) int {
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			return i
		}
	}
	return len(lines)
}

// sectionSpan locates the "<!-- ID: x -->" marker and extends through the
// line preceding the next ID marker, or end of body.
func sectionSpan(lines []string, id string) (int, int, error) {
	marker := fmt.Sprintf("<!-- ID: %s -->", id)
	start := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == marker {
			start = i + 1
			break
		}
	}
	if start == 0 {
		return 0, 0, apperr.New(apperr.CodeAnchorNotFound, "section marker %q not found", marker)
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "<!-- ID:") {
			end = i
			break
		}
	}
	return start, end, nil
}

// contentLines splits replacement content into lines. Empty content means
// the span is deleted outright.
func contentLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
