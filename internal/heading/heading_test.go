package heading

import (
	"slices"
	"testing"

	"github.com/paxocial/scribe/internal/scan"
)

func TestNormalizeATX(t *testing.T) {
	in := []string{
		"#Title",
		"##  Spaced  Out  ",
		"### Fine",
		"   # Indented ok",
		"    # code block, too deep",
		"####### seven hashes is text",
		"#",
	}
	got := Normalize(in, nil)
	want := []string{
		"# Title",
		"## Spaced  Out",
		"### Fine",
		"# Indented ok",
		"    # code block, too deep",
		"####### seven hashes is text",
		"#",
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalizeSetext(t *testing.T) {
	in := []string{
		"Title",
		"=====",
		"",
		"Subtitle",
		"--",
		"body text",
	}
	got := Normalize(in, nil)
	want := []string{
		"# Title",
		"",
		"## Subtitle",
		"body text",
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalizeSetextNonCandidates(t *testing.T) {
	in := []string{
		"- list item", // list items never become Setext headers
		"---",
		"",
		"---", // lone thematic break
	}
	got := Normalize(in, nil)
	if !slices.Equal(got, in) {
		t.Errorf("got %v, want unchanged", got)
	}
}

func TestNormalizeSkipsFences(t *testing.T) {
	in := []string{
		"```",
		"#not a header",
		"Fenced",
		"====",
		"```",
		"#real",
	}
	got := Normalize(in, scan.Fences(in))
	want := []string{
		"```",
		"#not a header",
		"Fenced",
		"====",
		"```",
		"# real",
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := []string{
		"Intro",
		"=====",
		"#One",
		"text",
		"Sub",
		"---",
		"```",
		"#keep",
		"```",
	}
	once := Normalize(in, scan.Fences(in))
	twice := Normalize(once, scan.Fences(once))
	if !slices.Equal(once, twice) {
		t.Errorf("not idempotent:\nonce  %v\ntwice %v", once, twice)
	}
}

func TestSlug(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Simple Title", "simple-title"},
		{"Getting  Started!", "getting-started"},
		{"API & CLI", "api-cli"},
		{"snake_case_stays", "snake_case_stays"},
		{"hyphen-stays", "hyphen-stays"},
		{"Café Déjà Vu", "cafe-deja-vu"},
		{"Version 2.0.1", "version-2-0-1"},
		{"  trimmed  ", "trimmed"},
		{"100% Done", "100-done"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSluggerDedup(t *testing.T) {
	s := NewSlugger()
	want := []string{"setup", "setup-1", "setup-2", "other", "setup-3"}
	in := []string{"Setup", "Setup", "Setup!", "Other", "setup"}
	for i, text := range in {
		if got := s.Slug(text); got != want[i] {
			t.Errorf("Slug(%q) = %q, want %q", text, got, want[i])
		}
	}
}

func TestCollectHeaders(t *testing.T) {
	lines := []string{
		"# One",
		"```",
		"# fenced",
		"```",
		"## Two",
		"## Two",
	}
	entries := CollectHeaders(lines, scan.Fences(lines))
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[1].Slug != "two" || entries[2].Slug != "two-1" {
		t.Errorf("slugs = %q, %q", entries[1].Slug, entries[2].Slug)
	}
	if entries[0].Level != 1 || entries[1].Level != 2 {
		t.Errorf("levels = %d, %d", entries[0].Level, entries[1].Level)
	}
}

func TestGenerateTOCInsertsAtTop(t *testing.T) {
	lines := []string{"# Alpha", "text", "## Beta"}
	entries, out := GenerateTOC(lines, nil)
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	want := []string{
		TOCStart,
		"- [Alpha](#alpha)",
		"  - [Beta](#beta)",
		TOCEnd,
		"",
		"# Alpha",
		"text",
		"## Beta",
	}
	if !slices.Equal(out, want) {
		t.Errorf("out = %v", out)
	}
}

func TestGenerateTOCReplacesBetweenMarkers(t *testing.T) {
	lines := []string{
		TOCStart,
		"- [Stale](#stale)",
		TOCEnd,
		"",
		"# Fresh",
	}
	_, out := GenerateTOC(lines, nil)
	want := []string{
		TOCStart,
		"- [Fresh](#fresh)",
		TOCEnd,
		"",
		"# Fresh",
	}
	if !slices.Equal(out, want) {
		t.Errorf("out = %v", out)
	}
}

func TestGenerateTOCIgnoresFencedMarkers(t *testing.T) {
	// Marker text quoted inside a code fence is content; the block goes
	// at the top, the fence stays untouched.
	lines := []string{
		"# Docs",
		"```",
		TOCStart,
		TOCEnd,
		"```",
	}
	_, out := GenerateTOC(lines, scan.Fences(lines))
	want := []string{
		TOCStart,
		"- [Docs](#docs)",
		TOCEnd,
		"",
		"# Docs",
		"```",
		TOCStart,
		TOCEnd,
		"```",
	}
	if !slices.Equal(out, want) {
		t.Errorf("out = %v", out)
	}
}

func TestGenerateTOCIdempotent(t *testing.T) {
	lines := []string{"# A", "## B", "body", "## B"}
	_, once := GenerateTOC(lines, scan.Fences(lines))
	_, twice := GenerateTOC(once, scan.Fences(once))
	if !slices.Equal(once, twice) {
		t.Errorf("not idempotent:\nonce  %v\ntwice %v", once, twice)
	}
}
