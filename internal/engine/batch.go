package engine

import (
	"context"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/document"
	"github.com/paxocial/scribe/internal/heading"
	"github.com/paxocial/scribe/internal/patch"
	"github.com/paxocial/scribe/internal/scan"
)

// BatchOp is one step in a flat batch against a single document.
type BatchOp struct {
	// Action is an edit type ("replace_range", "replace_block",
	// "replace_section", "apply_patch") or a transform
	// ("normalize_headers", "generate_toc"). "batch" is rejected:
	// batches do not nest.
	Action   string    `json:"action"`
	Edit     *EditSpec `json:"edit,omitempty"`
	DiffText string    `json:"diff,omitempty"`
	PreHash  string    `json:"pre_hash,omitempty"`
}

// BatchResult reports a completed batch.
type BatchResult struct {
	Key      string   `json:"key"`
	Applied  int      `json:"applied"`
	NewBody  string   `json:"new_body"`
	Diffs    []string `json:"diffs"`
	Checksum string   `json:"checksum"`
}

// Batch applies operations sequentially, threading the body output of
// each step into the next, with one atomic write at the end. Any step
// failing aborts the batch before anything is persisted. Pre-image hashes
// are only meaningful on the first step, since later steps see engine-
// produced intermediate bodies.
func (s *Service) Batch(_ context.Context, key string, ops []BatchOp) (*BatchResult, error) {
	if len(ops) == 0 {
		return nil, apperr.New(apperr.CodeInvalidRequest, "batch contains no operations")
	}

	row, doc, raw, err := s.load(key)
	if err != nil {
		return nil, err
	}

	body := doc.Body
	diffs := make([]string, 0, len(ops))

	for i, op := range ops {
		var next []string
		var diff string
		next, diff, err = s.applyOp(body, raw, i == 0, op)
		if err != nil {
			return nil, err
		}
		body = next
		if diff != "" {
			diffs = append(diffs, diff)
		}
	}

	newDoc, cs, err := s.persist(row, doc, body, nil, "batch", row.Checksum)
	if err != nil {
		return nil, err
	}

	return &BatchResult{
		Key:      key,
		Applied:  len(ops),
		NewBody:  document.JoinLines(newDoc.Body),
		Diffs:    diffs,
		Checksum: cs,
	}, nil
}

func (s *Service) applyOp(body []string, raw string, first bool, op BatchOp) ([]string, string, error) {
	switch op.Action {
	case "batch":
		return nil, "", apperr.New(apperr.CodeInvalidRequest, "nested batches are not allowed")

	case "normalize_headers":
		return heading.Normalize(body, scan.Fences(body)), "", nil

	case "generate_toc":
		_, out := heading.GenerateTOC(body, scan.Fences(body))
		return out, "", nil

	case "apply_patch":
		if op.Edit != nil {
			return nil, "", apperr.New(apperr.CodePatchModeConflict,
				"batch step supplies both a structured edit and a raw diff")
		}
		p, err := patch.FromUnified(op.DiffText, op.PreHash)
		if err != nil {
			return nil, "", err
		}
		out, err := applyStep(body, raw, first, p, op.PreHash)
		return out, p.Diff(), err

	case "replace_range", "replace_block", "replace_section":
		if op.Edit == nil {
			return nil, "", apperr.New(apperr.CodeInvalidRequest, "batch step %q is missing its edit", op.Action)
		}
		if op.DiffText != "" {
			return nil, "", apperr.New(apperr.CodePatchModeConflict,
				"batch step supplies both a structured edit and a raw diff")
		}
		spec := *op.Edit
		spec.Type = op.Action
		intent, err := spec.Intent()
		if err != nil {
			return nil, "", err
		}
		p, err := patch.Compile(body, scan.Fences(body), intent)
		if err != nil {
			return nil, "", err
		}
		out, err := applyStep(body, raw, first, p, op.PreHash)
		return out, p.Diff(), err

	default:
		return nil, "", apperr.New(apperr.CodeInvalidRequest, "unknown batch action %q", op.Action)
	}
}

// applyStep applies a compiled patch within a batch. The pre-image hash,
// when present, is only honored on the first step, where it still refers
// to the on-disk document.
func applyStep(body []string, raw string, first bool, p *patch.Patch, preHash string) ([]string, error) {
	if first && preHash != "" {
		return applyWithDocHash(body, p, preHash, raw)
	}
	return patch.Apply(body, p, "")
}
