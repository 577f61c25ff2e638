package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paxocial/scribe/internal/apperr"
)

// LastUpdatedKey is the engine-owned timestamp field stamped on every
// successful write. Caller-supplied values for it are always overwritten.
const LastUpdatedKey = "last_updated"

// Frontmatter is an order-preserving YAML mapping. The underlying
// yaml.Node keeps key order stable across parse/mutate/render cycles, so
// an edit that only touches the body never reorders a document's metadata.
type Frontmatter struct {
	Present bool

	node *yaml.Node // mapping node; nil until the first Set
}

func parseFrontmatter(block string) (*Frontmatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, apperr.New(apperr.CodeMalformedFrontmatter, "invalid YAML: %v", err)
	}
	if len(doc.Content) == 0 {
		// Empty block between delimiters: present but no keys.
		return &Frontmatter{Present: true}, nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, apperr.New(apperr.CodeMalformedFrontmatter,
			"frontmatter must be a YAML mapping, got %s", nodeKind(mapping.Kind))
	}
	return &Frontmatter{Present: true, node: mapping}, nil
}

// Get returns the decoded value for key.
func (f *Frontmatter) Get(key string) (any, bool) {
	if f.node == nil {
		return nil, false
	}
	idx := f.keyIndex(key)
	if idx < 0 {
		return nil, false
	}
	var v any
	if err := f.node.Content[idx+1].Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one. Existing keys keep their position.
func (f *Frontmatter) Set(key string, value any) error {
	valNode := &yaml.Node{}
	if err := valNode.Encode(value); err != nil {
		return fmt.Errorf("frontmatter: encode %q: %w", key, err)
	}
	if f.node == nil {
		f.node = &yaml.Node{Kind: yaml.MappingNode}
	}
	if idx := f.keyIndex(key); idx >= 0 {
		f.node.Content[idx+1] = valNode
		return nil
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	f.node.Content = append(f.node.Content, keyNode, valNode)
	return nil
}

// Keys returns all keys in document order.
func (f *Frontmatter) Keys() []string {
	if f.node == nil {
		return nil
	}
	var keys []string
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		keys = append(keys, f.node.Content[i].Value)
	}
	return keys
}

// StringSlice returns the value for key decoded as a list of strings. A
// single scalar value decodes as a one-element list.
func (f *Frontmatter) StringSlice(key string) []string {
	v, ok := f.Get(key)
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	case []any:
		var out []string
		for _, item := range vv {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Finalize prepares frontmatter for write: synthesizes a block when none
// was present, merges caller overrides key-by-key (caller values win),
// and unconditionally stamps last_updated. The receiver is not mutated.
func (f *Frontmatter) Finalize(overrides map[string]any, now time.Time) (*Frontmatter, error) {
	out := f.clone()
	out.Present = true

	// Deterministic merge order for map-supplied overrides.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := out.Set(k, overrides[k]); err != nil {
			return nil, err
		}
	}

	if err := out.Set(LastUpdatedKey, now.UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return out, nil
}

// Render serializes the frontmatter block including both delimiter lines.
func (f *Frontmatter) Render() (string, error) {
	if f.node == nil || len(f.node.Content) == 0 {
		return "---\n---\n", nil
	}
	var b strings.Builder
	b.WriteString("---\n")
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(f.node); err != nil {
		return "", fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("frontmatter: close encoder: %w", err)
	}
	b.WriteString("---\n")
	return b.String(), nil
}

func (f *Frontmatter) keyIndex(key string) int {
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		if f.node.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func (f *Frontmatter) clone() *Frontmatter {
	out := &Frontmatter{Present: f.Present}
	if f.node != nil {
		out.node = cloneNode(f.node)
	}
	return out
}

func cloneNode(n *yaml.Node) *yaml.Node {
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "unknown"
	}
}
