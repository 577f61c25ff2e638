package heading

import (
	"strings"

	"github.com/paxocial/scribe/internal/scan"
)

// TOC marker comments. The rendered block lives between them; when they
// are absent the block is inserted once at the top of the body.
const (
	TOCStart = "<!-- TOC:start -->"
	TOCEnd   = "<!-- TOC:end -->"
)

// TOCEntry is one header link in the generated table of contents.
type TOCEntry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Slug  string `json:"slug"`
}

// CollectHeaders gathers every header outside fenced regions with
// deduplicated slugs in document order.
func CollectHeaders(lines []string, fences scan.FenceMap) []TOCEntry {
	slugger := NewSlugger()
	var out []TOCEntry
	for i, line := range lines {
		if fences.Contains(i + 1) {
			continue
		}
		level, text, ok := parseATX(line)
		if !ok || text == "" {
			continue
		}
		out = append(out, TOCEntry{Level: level, Text: text, Slug: slugger.Slug(text)})
	}
	return out
}

// GenerateTOC builds the table of contents and splices the rendered block
// into the body between the marker comments, inserting markers at the top
// of the body when absent. Generation is idempotent: re-running on its
// own output leaves the body unchanged.
func GenerateTOC(lines []string, fences scan.FenceMap) ([]TOCEntry, []string) {
	entries := CollectHeaders(lines, fences)
	block := renderTOC(entries)

	start, end := markerSpan(lines, fences)
	if start >= 0 {
		out := make([]string, 0, len(lines)+len(block))
		out = append(out, lines[:start+1]...)
		out = append(out, block...)
		out = append(out, lines[end:]...)
		return entries, out
	}

	out := make([]string, 0, len(lines)+len(block)+3)
	out = append(out, TOCStart)
	out = append(out, block...)
	out = append(out, TOCEnd, "")
	out = append(out, lines...)
	return entries, out
}

// renderTOC renders entries as a nested Markdown list, two spaces of
// indent per header level.
func renderTOC(entries []TOCEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		indent := strings.Repeat("  ", e.Level-1)
		out = append(out, indent+"- ["+e.Text+"](#"+e.Slug+")")
	}
	return out
}

// markerSpan returns the line indexes (0-based) of the start and end
// markers, or -1, -1 when either is missing or out of order. Marker text
// inside a fenced region is literal content, not a marker.
func markerSpan(lines []string, fences scan.FenceMap) (int, int) {
	start, end := -1, -1
	for i, line := range lines {
		if fences.Contains(i + 1) {
			continue
		}
		switch strings.TrimSpace(line) {
		case TOCStart:
			if start < 0 {
				start = i
			}
		case TOCEnd:
			if end < 0 {
				end = i
			}
		}
	}
	if start < 0 || end < 0 || end < start {
		return -1, -1
	}
	return start, end
}
