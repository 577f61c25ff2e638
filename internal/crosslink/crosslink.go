// Package crosslink checks that a document's declared related-document
// references resolve. Validation is read-only: it never mutates any
// document.
package crosslink

import (
	"regexp"
	"strings"

	"github.com/paxocial/scribe/internal/document"
	"github.com/paxocial/scribe/internal/heading"
	"github.com/paxocial/scribe/internal/scan"
)

// Status classifies one reference check.
type Status string

const (
	StatusOK            Status = "ok"
	StatusMissingDoc    Status = "missing_doc"
	StatusMissingAnchor Status = "missing_anchor"
)

// Result is the outcome for a single reference.
type Result struct {
	Ref    string `json:"ref"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// LookupFunc resolves a doc key to a file path. Implemented by the
// registry; the validator never invents paths itself.
type LookupFunc func(key string) (string, error)

// LoadFunc reads the raw text of a resolved document.
type LoadFunc func(path string) ([]byte, error)

var idMarkerRe = regexp.MustCompile(`<!-- ID: (\S+) -->`)

// Validate checks each reference, of the form "key" or "key#anchor".
// When checkAnchors is set, anchored references load the target document
// and verify its anchor set (header slugs plus "<!-- ID: ... -->"
// markers) contains the referenced anchor.
func Validate(refs []string, lookup LookupFunc, load LoadFunc, checkAnchors bool) []Result {
	out := make([]Result, 0, len(refs))
	for _, ref := range refs {
		out = append(out, validateRef(ref, lookup, load, checkAnchors))
	}
	return out
}

func validateRef(ref string, lookup LookupFunc, load LoadFunc, checkAnchors bool) Result {
	key, anchor, _ := strings.Cut(ref, "#")

	path, err := lookup(key)
	if err != nil {
		return Result{Ref: ref, Status: StatusMissingDoc, Detail: "doc key not registered"}
	}
	if anchor == "" || !checkAnchors {
		return Result{Ref: ref, Status: StatusOK}
	}

	raw, err := load(path)
	if err != nil {
		return Result{Ref: ref, Status: StatusMissingDoc, Detail: "registered file unreadable"}
	}
	if _, ok := anchorSet(string(raw))[anchor]; !ok {
		return Result{Ref: ref, Status: StatusMissingAnchor, Detail: "anchor not present in target"}
	}
	return Result{Ref: ref, Status: StatusOK}
}

// anchorSet collects every addressable anchor of a document: slugs of its
// headers and explicit ID marker comments. A document with malformed
// frontmatter still gets its raw lines scanned, since validation must not
// fail the referencing document for a broken target.
func anchorSet(raw string) map[string]struct{} {
	var lines []string
	if doc, err := document.Split(raw); err == nil {
		lines = doc.Body
	} else {
		lines = document.SplitLines(raw)
	}

	fences := scan.Fences(lines)
	set := make(map[string]struct{})
	for _, e := range heading.CollectHeaders(lines, fences) {
		set[e.Slug] = struct{}{}
	}
	for i, line := range lines {
		if fences.Contains(i + 1) {
			continue
		}
		if m := idMarkerRe.FindStringSubmatch(line); m != nil {
			set[m[1]] = struct{}{}
		}
	}
	return set
}
