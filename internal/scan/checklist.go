package scan

import "regexp"

var checklistRe = regexp.MustCompile(`^\s*[-*] \[( |x|X)\] (.*)$`)

// ChecklistItem is a single task-list entry found in a document body.
type ChecklistItem struct {
	// Line is the body-relative line number of the item.
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// ChecklistItems extracts GitHub task-list items ("- [ ]" / "- [x]") from
// body lines, skipping fenced regions.
func ChecklistItems(lines []string, fences FenceMap) []ChecklistItem {
	var out []ChecklistItem
	for i, line := range lines {
		n := i + 1
		if fences.Contains(n) {
			continue
		}
		m := checklistRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, ChecklistItem{
			Line:    n,
			Text:    m[2],
			Checked: m[1] != " ",
		})
	}
	return out
}
