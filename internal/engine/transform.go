package engine

import (
	"context"
	"slices"

	"github.com/paxocial/scribe/internal/crosslink"
	"github.com/paxocial/scribe/internal/document"
	"github.com/paxocial/scribe/internal/heading"
	"github.com/paxocial/scribe/internal/scan"
)

// TransformResult reports a whole-body transformation.
type TransformResult struct {
	Key     string `json:"key"`
	Changed bool   `json:"changed"`
	NewBody string `json:"new_body"`
	// Entries is populated by generate_toc.
	Entries []heading.TOCEntry `json:"entries,omitempty"`
}

// NormalizeHeaders rewrites every header of a document into canonical ATX
// form and persists the result. A document that is already canonical is
// left untouched: no write, no audit entry, no last_updated stamp.
func (s *Service) NormalizeHeaders(_ context.Context, key string) (*TransformResult, error) {
	row, doc, _, err := s.load(key)
	if err != nil {
		return nil, err
	}

	newBody := heading.Normalize(doc.Body, scan.Fences(doc.Body))
	if slices.Equal(newBody, doc.Body) {
		return &TransformResult{Key: key, Changed: false, NewBody: document.JoinLines(doc.Body)}, nil
	}

	newDoc, _, err := s.persist(row, doc, newBody, nil, "normalize_headers", row.Checksum)
	if err != nil {
		return nil, err
	}
	return &TransformResult{Key: key, Changed: true, NewBody: document.JoinLines(newDoc.Body)}, nil
}

// GenerateTOC rebuilds the table-of-contents block between the TOC
// markers (inserting them at the top of the body when absent) and
// persists the result when it differs.
func (s *Service) GenerateTOC(_ context.Context, key string) (*TransformResult, error) {
	row, doc, _, err := s.load(key)
	if err != nil {
		return nil, err
	}

	entries, newBody := heading.GenerateTOC(doc.Body, scan.Fences(doc.Body))
	if slices.Equal(newBody, doc.Body) {
		return &TransformResult{Key: key, Changed: false, NewBody: document.JoinLines(doc.Body), Entries: entries}, nil
	}

	newDoc, _, err := s.persist(row, doc, newBody, nil, "generate_toc", row.Checksum)
	if err != nil {
		return nil, err
	}
	return &TransformResult{Key: key, Changed: true, NewBody: document.JoinLines(newDoc.Body), Entries: entries}, nil
}

// ValidateCrosslinks checks the document's related_docs references
// against the registry. Read-only.
func (s *Service) ValidateCrosslinks(_ context.Context, key string, checkAnchors bool) ([]crosslink.Result, error) {
	_, doc, _, err := s.load(key)
	if err != nil {
		return nil, err
	}
	refs := doc.Frontmatter.StringSlice("related_docs")

	lookup := func(k string) (string, error) {
		row, err := s.reg.Resolve(k)
		if err != nil {
			return "", err
		}
		return row.Path, nil
	}
	return crosslink.Validate(refs, lookup, s.store.Read, checkAnchors), nil
}

// ListChecklistItems extracts task-list items from the document body with
// body-relative line numbers. Read-only.
func (s *Service) ListChecklistItems(_ context.Context, key string) ([]scan.ChecklistItem, error) {
	_, doc, _, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return scan.ChecklistItems(doc.Body, scan.Fences(doc.Body)), nil
}
