// Package document models a Markdown document as an optional YAML
// frontmatter block plus a body of raw lines. All line numbers exchanged
// with callers are body-relative: 1-based, counted from the first line
// after the frontmatter block.
package document

import (
	"strings"

	"github.com/paxocial/scribe/internal/apperr"
)

const delimiter = "---"

// Document is an immutable snapshot of a parsed document. Operations never
// mutate a Document in place; they produce a new one.
type Document struct {
	Frontmatter *Frontmatter
	Body        []string

	// BodyOffset is the number of file lines consumed by the frontmatter
	// block including both delimiter lines. Body-relative line n maps to
	// file line n + BodyOffset.
	BodyOffset int
}

// Split parses raw document text into frontmatter and body. A document
// whose first line is exactly "---" must carry a parsable YAML block
// terminated by another "---" line; anything else there is
// MALFORMED_FRONTMATTER and the body is not processed.
func Split(raw string) (*Document, error) {
	lines := SplitLines(raw)

	if len(lines) == 0 || lines[0] != delimiter {
		return &Document{
			Frontmatter: &Frontmatter{},
			Body:        lines,
		}, nil
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if lines[i] == delimiter {
			closing = i
			break
		}
	}
	if closing < 0 {
		return nil, apperr.New(apperr.CodeMalformedFrontmatter,
			"frontmatter block opened at line 1 is never closed")
	}

	block := strings.Join(lines[1:closing], "\n")
	fm, err := parseFrontmatter(block)
	if err != nil {
		return nil, err
	}

	return &Document{
		Frontmatter: fm,
		Body:        lines[closing+1:],
		BodyOffset:  closing + 1,
	}, nil
}

// Render reassembles the full document text from frontmatter and body.
func (d *Document) Render() (string, error) {
	body := JoinLines(d.Body)
	if d.Frontmatter == nil || !d.Frontmatter.Present {
		return body, nil
	}
	block, err := d.Frontmatter.Render()
	if err != nil {
		return "", err
	}
	return block + body, nil
}

// WithBody returns a copy of d carrying the given body lines.
func (d *Document) WithBody(body []string) *Document {
	return &Document{
		Frontmatter: d.Frontmatter,
		Body:        body,
		BodyOffset:  d.BodyOffset,
	}
}

// SplitLines splits text into lines without trailing newlines. A final
// newline does not produce a trailing empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines joins body lines back into newline-terminated text. An empty
// body renders as the empty string.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
