package patch

// Intent is a declarative, typed edit request. Exactly one variant is
// supplied per request.
type Intent interface {
	intent()
}

// ReplaceRange replaces an inclusive span of body-relative lines.
type ReplaceRange struct {
	StartLine int
	EndLine   int
	Content   string
}

// ReplaceBlock replaces the block starting at the unique line containing
// Anchor, through the line before the next blank line (or end of body).
type ReplaceBlock struct {
	Anchor  string
	Content string
}

// ReplaceSection replaces the section delimited by "<!-- ID: ... -->"
// marker comments. This is the legacy, lowest-precision mode, intended
// for initial scaffolding rather than habitual edits.
type ReplaceSection struct {
	AnchorID string
	Content  string
}

func (ReplaceRange) intent()   {}
func (ReplaceBlock) intent()   {}
func (ReplaceSection) intent() {}
