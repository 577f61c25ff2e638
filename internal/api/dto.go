package api

import (
	"errors"
	"net/http"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/engine"
)

// EditRequestBody is the transport shape of one engine request:
// an action, a doc key, and action-specific payload.
type EditRequestBody struct {
	Action   string           `json:"action"`
	Doc      string           `json:"doc"`
	Edit     *engine.EditSpec `json:"edit,omitempty"`
	Patch    string           `json:"patch,omitempty"`
	Content  string           `json:"content,omitempty"`
	Metadata *Metadata        `json:"metadata,omitempty"`
}

// Metadata carries the optional request extras.
type Metadata struct {
	Frontmatter  map[string]any   `json:"frontmatter,omitempty"`
	CheckAnchors bool             `json:"check_anchors,omitempty"`
	PreHash      string           `json:"pre_hash,omitempty"`
	NewDoc       string           `json:"new_doc,omitempty"`
	Operations   []engine.BatchOp `json:"operations,omitempty"`
}

// Envelope is the uniform response shape. Ambiguous-anchor errors carry
// the matched line list; staleness errors carry both checksums.
type Envelope struct {
	OK          bool   `json:"ok"`
	NewBody     string `json:"new_body,omitempty"`
	Diff        string `json:"diff,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	Data        any    `json:"data,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
	Lines       []int  `json:"lines,omitempty"`
	Expected    string `json:"expected,omitempty"`
	Actual      string `json:"actual,omitempty"`
}

// errEnvelope builds the failure envelope for a coded engine error.
func errEnvelope(err error) Envelope {
	env := Envelope{OK: false, ErrorDetail: err.Error()}
	var e *apperr.Error
	if errors.As(err, &e) {
		env.ErrorCode = string(e.Code)
		env.ErrorDetail = e.Detail
		env.Lines = e.Lines
		env.Expected = e.Expected
		env.Actual = e.Actual
	}
	return env
}

// statusFor maps engine error codes onto HTTP statuses.
func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeDocNotFound, apperr.CodeAnchorNotFound:
		return http.StatusNotFound
	case apperr.CodeDocAlreadyExists, apperr.CodeAnchorAmbiguous,
		apperr.CodeStaleSource, apperr.CodePatchApplyFailed:
		return http.StatusConflict
	case apperr.CodeInvalidRange, apperr.CodePatchModeConflict,
		apperr.CodeMalformedFrontmatter, apperr.CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
