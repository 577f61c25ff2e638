package patch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/checksum"
	"github.com/paxocial/scribe/internal/document"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

type hunk struct {
	oldStart int
	oldCount int
	lines    []string // raw diff body lines, tag prefix included
}

// Apply applies a patch to body lines and returns the new body. If
// expectedPreHash is non-empty it is checked against the current body
// hash first (STALE_SOURCE on mismatch). Application is all-or-nothing: a
// hunk whose context does not match the body at its claimed offset fails
// the whole patch with PATCH_APPLY_FAILED and the body is returned
// unchanged. Re-applying an already-applied patch fails the same way,
// which makes accidental double-submission detectable.
func Apply(lines []string, p *Patch, expectedPreHash string) ([]string, error) {
	if expectedPreHash != "" {
		actual := checksum.SumString(document.JoinLines(lines))
		if actual != expectedPreHash {
			return nil, apperr.Stale(expectedPreHash, actual)
		}
	}

	hunks, err := parseDiff(p.diff)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(lines))
	pos := 0 // next unconsumed 0-based index into lines

	for _, h := range hunks {
		idx := h.oldStart - 1
		if h.oldCount == 0 {
			// Pure insertion: the header addresses the preceding line.
			idx = h.oldStart
		}
		if idx < pos || idx > len(lines) {
			return nil, apperr.New(apperr.CodePatchApplyFailed,
				"hunk at line %d overlaps or exceeds document of %d lines", h.oldStart, len(lines))
		}
		out = append(out, lines[pos:idx]...)
		pos = idx

		for _, dl := range h.lines {
			tag, text := splitDiffLine(dl)
			switch tag {
			case ' ', '-':
				if pos >= len(lines) || lines[pos] != text {
					return nil, contextMismatch(lines, pos, text)
				}
				if tag == ' ' {
					out = append(out, lines[pos])
				}
				pos++
			case '+':
				out = append(out, text)
			}
		}
	}

	out = append(out, lines[pos:]...)
	return out, nil
}

func contextMismatch(lines []string, pos int, want string) error {
	got := "<end of document>"
	if pos < len(lines) {
		got = lines[pos]
	}
	return apperr.New(apperr.CodePatchApplyFailed,
		"context mismatch at body line %d: patch expects %q, document has %q", pos+1, want, got)
}

// parseDiff parses unified diff text into hunks. File headers ("---",
// "+++") before the first hunk are skipped; hunks must be in ascending
// order.
func parseDiff(text string) ([]hunk, error) {
	var hunks []hunk
	var cur *hunk

	for _, raw := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case cur == nil && (strings.HasPrefix(raw, "--- ") || strings.HasPrefix(raw, "+++ ")):
			// File headers only precede the first hunk. Inside a hunk a
			// line starting with "---" is a deletion of body text "-- ...".
			continue
		case strings.HasPrefix(raw, "@@"):
			m := hunkHeaderRe.FindStringSubmatch(raw)
			if m == nil {
				return nil, apperr.New(apperr.CodePatchApplyFailed, "malformed hunk header %q", raw)
			}
			h := hunk{oldStart: atoiDefault(m[1], 0), oldCount: atoiDefault(m[2], 1)}
			if len(hunks) > 0 && h.oldStart < hunks[len(hunks)-1].oldStart {
				return nil, apperr.New(apperr.CodePatchApplyFailed, "hunks out of order at %q", raw)
			}
			hunks = append(hunks, h)
			cur = &hunks[len(hunks)-1]
		case raw == "" && cur == nil:
			continue
		default:
			if cur == nil {
				return nil, apperr.New(apperr.CodePatchApplyFailed, "diff line %q outside any hunk", raw)
			}
			if raw == "" {
				// Tolerate a bare empty line as empty context.
				cur.lines = append(cur.lines, " ")
				continue
			}
			switch raw[0] {
			case ' ', '-', '+':
				cur.lines = append(cur.lines, raw)
			case '\\':
				// "\ No newline at end of file" — line-based model, ignore.
			default:
				return nil, apperr.New(apperr.CodePatchApplyFailed, "unrecognized diff line %q", raw)
			}
		}
	}

	if len(hunks) == 0 {
		return nil, apperr.New(apperr.CodePatchApplyFailed, "diff contains no hunks")
	}
	return hunks, nil
}

func splitDiffLine(dl string) (byte, string) {
	return dl[0], dl[1:]
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
