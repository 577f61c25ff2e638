// Package apperr defines the engine's coded error taxonomy. Every error is
// terminal and non-retryable: they describe input or state problems, never
// transient faults, so callers fix the request rather than retry it.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a class of engine failure. Codes are part of the wire
// contract and are returned verbatim to callers.
type Code string

const (
	CodeDocNotFound          Code = "DOC_NOT_FOUND"
	CodeDocAlreadyExists     Code = "DOC_ALREADY_EXISTS"
	CodeMalformedFrontmatter Code = "MALFORMED_FRONTMATTER"
	CodeAnchorNotFound       Code = "STRUCTURED_EDIT_ANCHOR_NOT_FOUND"
	CodeAnchorAmbiguous      Code = "STRUCTURED_EDIT_ANCHOR_AMBIGUOUS"
	CodeInvalidRange         Code = "INVALID_RANGE"
	CodePatchModeConflict    Code = "PATCH_MODE_CONFLICT"
	CodeStaleSource          Code = "STALE_SOURCE"
	CodePatchApplyFailed     Code = "PATCH_APPLY_FAILED"
	CodeInvalidRequest       Code = "INVALID_REQUEST"
)

// Error carries a code plus enough structured detail for an automated agent
// to self-correct without reading a server log.
type Error struct {
	Code   Code
	Detail string

	// Lines holds body-relative line numbers of every match when an anchor
	// resolves ambiguously.
	Lines []int

	// Expected and Actual carry checksums when Code is STALE_SOURCE.
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// New creates a coded error with a formatted detail message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Ambiguous creates an anchor-ambiguity error carrying every matching line.
func Ambiguous(detail string, lines []int) *Error {
	return &Error{Code: CodeAnchorAmbiguous, Detail: detail, Lines: lines}
}

// Stale creates a pre-image mismatch error with both checksums.
func Stale(expected, actual string) *Error {
	return &Error{
		Code:     CodeStaleSource,
		Detail:   "document changed since the patch was computed",
		Expected: expected,
		Actual:   actual,
	}
}

// CodeOf returns the code of err, or empty string for uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
