// Package patch turns declarative edit intents into unified diffs and
// applies them. Every diff the engine handles originates here: structured
// intents are compiled into one, and caller-supplied raw diffs only enter
// through a validating constructor. The Patch type is sealed (unexported
// fields, no public literal) so nothing else can mint one.
package patch

import "github.com/paxocial/scribe/internal/apperr"

// Origin records how a Patch was produced.
type Origin int

const (
	// OriginStructured marks a patch compiled from an edit intent.
	OriginStructured Origin = iota + 1
	// OriginUnified marks a validated caller-supplied unified diff.
	OriginUnified
)

// Patch is an applicable unified diff plus an optional pre-image hash.
type Patch struct {
	origin  Origin
	diff    string
	preHash string
}

// Origin returns how the patch was produced.
func (p *Patch) Origin() Origin { return p.origin }

// Diff returns the unified diff text.
func (p *Patch) Diff() string { return p.diff }

// PreHash returns the expected pre-image content hash, or empty.
func (p *Patch) PreHash() string { return p.preHash }

// FromUnified validates raw unified diff text and wraps it as a Patch.
// Unparsable input is PATCH_APPLY_FAILED immediately, before any document
// state is touched.
func FromUnified(diffText, preHash string) (*Patch, error) {
	if diffText == "" {
		return nil, apperr.New(apperr.CodePatchApplyFailed, "empty diff")
	}
	if _, err := parseDiff(diffText); err != nil {
		return nil, err
	}
	return &Patch{origin: OriginUnified, diff: diffText, preHash: preHash}, nil
}
