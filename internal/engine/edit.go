package engine

import (
	"context"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/checksum"
	"github.com/paxocial/scribe/internal/document"
	"github.com/paxocial/scribe/internal/patch"
	"github.com/paxocial/scribe/internal/scan"
)

// EditSpec is the transport-agnostic wire shape of a structured edit
// intent. Exactly one intent type is supplied per request.
type EditSpec struct {
	Type       string `json:"type"`
	StartLine  int    `json:"start_line,omitempty"`
	EndLine    int    `json:"end_line,omitempty"`
	AnchorText string `json:"anchor_text,omitempty"`
	AnchorID   string `json:"anchor_id,omitempty"`
	Content    string `json:"content"`
}

// Intent converts the wire shape into a typed edit intent.
func (e *EditSpec) Intent() (patch.Intent, error) {
	switch e.Type {
	case "replace_range":
		return patch.ReplaceRange{StartLine: e.StartLine, EndLine: e.EndLine, Content: e.Content}, nil
	case "replace_block":
		return patch.ReplaceBlock{Anchor: e.AnchorText, Content: e.Content}, nil
	case "replace_section":
		return patch.ReplaceSection{AnchorID: e.AnchorID, Content: e.Content}, nil
	default:
		return nil, apperr.New(apperr.CodeInvalidRequest, "unknown edit type %q", e.Type)
	}
}

// EditRequest carries one edit against one document: either a structured
// intent or a raw unified diff, never both.
type EditRequest struct {
	Edit     *EditSpec
	DiffText string
	// PreHash, when set, is the expected SHA-256 of the full current
	// document text; mismatch aborts with STALE_SOURCE.
	PreHash string
	// Frontmatter overrides are merged before the write, caller values
	// winning. last_updated is engine-owned regardless.
	Frontmatter map[string]any
}

// EditResult reports a successful edit.
type EditResult struct {
	Key      string `json:"key"`
	NewBody  string `json:"new_body"`
	Diff     string `json:"diff"`
	Checksum string `json:"checksum"`
}

// EditDoc applies a single edit to a registered document and persists the
// result. Structured intents compile to a diff; raw diffs enter through
// the validating patch constructor. Supplying both is PATCH_MODE_CONFLICT
// and mutates nothing.
func (s *Service) EditDoc(_ context.Context, key string, req EditRequest) (*EditResult, error) {
	if req.Edit != nil && req.DiffText != "" {
		return nil, apperr.New(apperr.CodePatchModeConflict,
			"request supplies both a structured edit and a raw diff")
	}
	if req.Edit == nil && req.DiffText == "" {
		return nil, apperr.New(apperr.CodeInvalidRequest, "request supplies neither an edit nor a diff")
	}

	row, doc, raw, err := s.load(key)
	if err != nil {
		return nil, err
	}

	var p *patch.Patch
	action := "apply_patch"
	if req.Edit != nil {
		intent, err := req.Edit.Intent()
		if err != nil {
			return nil, err
		}
		action = req.Edit.Type
		fences := scan.Fences(doc.Body)
		p, err = patch.Compile(doc.Body, fences, intent)
		if err != nil {
			return nil, err
		}
	} else {
		p, err = patch.FromUnified(req.DiffText, req.PreHash)
		if err != nil {
			return nil, err
		}
	}

	preHash := req.PreHash
	if preHash == "" {
		preHash = p.PreHash()
	}
	newBody, err := applyWithDocHash(doc.Body, p, preHash, raw)
	if err != nil {
		return nil, err
	}

	newDoc, cs, err := s.persist(row, doc, newBody, req.Frontmatter, action, row.Checksum)
	if err != nil {
		return nil, err
	}

	return &EditResult{
		Key:      key,
		NewBody:  document.JoinLines(newDoc.Body),
		Diff:     p.Diff(),
		Checksum: cs,
	}, nil
}

// applyWithDocHash checks the pre-image hash against the full document
// text (the hash callers observe) before applying the patch to the body.
func applyWithDocHash(body []string, p *patch.Patch, preHash, raw string) ([]string, error) {
	if preHash != "" {
		actual := checksum.SumString(raw)
		if actual != preHash {
			return nil, apperr.Stale(preHash, actual)
		}
	}
	return patch.Apply(body, p, "")
}
