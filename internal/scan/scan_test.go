package scan

import (
	"errors"
	"testing"

	"github.com/paxocial/scribe/internal/apperr"
)

func TestFencesBasic(t *testing.T) {
	lines := []string{
		"intro",        // 1
		"```go",        // 2
		"code",         // 3
		"```",          // 4
		"outro",        // 5
	}
	m := Fences(lines)
	if len(m) != 1 || m[0].Start != 2 || m[0].End != 4 {
		t.Fatalf("fences = %v", m)
	}
	for _, tc := range []struct {
		line int
		want bool
	}{
		{1, false}, {2, true}, {3, true}, {4, true}, {5, false},
	} {
		if got := m.Contains(tc.line); got != tc.want {
			t.Errorf("Contains(%d) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestFencesTildeAndMixedMarkers(t *testing.T) {
	lines := []string{
		"~~~",   // 1 opens tilde fence
		"```",   // 2 backticks do not close a tilde fence
		"text",  // 3
		"~~~",   // 4 closes
		"after", // 5
	}
	m := Fences(lines)
	if len(m) != 1 || m[0].Start != 1 || m[0].End != 4 {
		t.Fatalf("fences = %v", m)
	}
}

func TestFencesUnterminated(t *testing.T) {
	lines := []string{"a", "```", "trapped"}
	m := Fences(lines)
	if len(m) != 1 || m[0].Start != 2 || m[0].End != 3 {
		t.Fatalf("unterminated fence = %v", m)
	}
}

func TestFencesInfoStringAndClose(t *testing.T) {
	lines := []string{
		"````text", // 1 four backticks with info string
		"``` not a close, has trailing text",
		"````", // 3
	}
	m := Fences(lines)
	if len(m) != 1 || m[0].End != 3 {
		t.Fatalf("fences = %v", m)
	}
}

func TestFencesTwoBackticksNotAFence(t *testing.T) {
	if m := Fences([]string{"``inline``", "text"}); len(m) != 0 {
		t.Fatalf("fences = %v", m)
	}
}

func TestResolveAnchorSingle(t *testing.T) {
	lines := []string{"alpha", "the target line", "omega"}
	got, err := ResolveAnchor(lines, nil, "target", false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Line != 2 || got.Text != "the target line" {
		t.Errorf("match = %+v", got)
	}
}

func TestResolveAnchorNotFound(t *testing.T) {
	_, err := ResolveAnchor([]string{"a", "b"}, nil, "missing", false)
	if !apperr.IsCode(err, apperr.CodeAnchorNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolveAnchorAmbiguous(t *testing.T) {
	lines := []string{
		"keep",      // 1
		"dup here",  // 2
		"keep",      // 3
		"also dup",  // 4
	}
	_, err := ResolveAnchor(lines, nil, "dup", false)
	var e *apperr.Error
	if !errors.As(err, &e) || e.Code != apperr.CodeAnchorAmbiguous {
		t.Fatalf("err = %v", err)
	}
	if len(e.Lines) != 2 || e.Lines[0] != 2 || e.Lines[1] != 4 {
		t.Errorf("lines = %v, want [2 4]", e.Lines)
	}
}

func TestResolveAnchorSkipsFences(t *testing.T) {
	lines := []string{
		"```",      // 1
		"needle",   // 2 inside fence
		"```",      // 3
		"needle",   // 4 real occurrence
	}
	fences := Fences(lines)
	got, err := ResolveAnchor(lines, fences, "needle", false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Line != 4 {
		t.Errorf("line = %d, want 4", got.Line)
	}

	// Opting in to fenced content makes it ambiguous again.
	_, err = ResolveAnchor(lines, fences, "needle", true)
	if !apperr.IsCode(err, apperr.CodeAnchorAmbiguous) {
		t.Errorf("err = %v, want ambiguous", err)
	}
}

func TestResolveAnchorEmpty(t *testing.T) {
	_, err := ResolveAnchor([]string{"a"}, nil, "", false)
	if !apperr.IsCode(err, apperr.CodeAnchorNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestChecklistItems(t *testing.T) {
	lines := []string{
		"# Tasks",           // 1
		"- [ ] open item",   // 2
		"- [x] done item",   // 3
		"  - [X] nested",    // 4
		"* [ ] star style",  // 5
		"- [] not a task",   // 6
		"```",               // 7
		"- [ ] fenced",      // 8
		"```",               // 9
	}
	items := ChecklistItems(lines, Fences(lines))
	if len(items) != 4 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Line != 2 || items[0].Checked || items[0].Text != "open item" {
		t.Errorf("first = %+v", items[0])
	}
	if !items[1].Checked || !items[2].Checked {
		t.Error("x and X should both mark checked")
	}
	if items[3].Line != 5 {
		t.Errorf("star item line = %d", items[3].Line)
	}
}
