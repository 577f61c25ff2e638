// Package engine coordinates one document operation end to end: registry
// resolve → read snapshot → transform → frontmatter finalize → atomic
// write → audit record. The engine holds no per-document state between
// calls; callers are responsible for serializing writes to a single
// document, and the pre-image hash check turns a lost race into a clean
// STALE_SOURCE instead of a corrupted file.
package engine

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/checksum"
	"github.com/paxocial/scribe/internal/document"
	"github.com/paxocial/scribe/internal/registry"
	"github.com/paxocial/scribe/internal/storage"
)

// Notifier is called after each successful mutation.
// kind is one of "created", "updated", "deleted".
type Notifier func(kind, key string)

// Service coordinates storage and registry operations.
type Service struct {
	store  storage.Provider
	reg    registry.Store
	now    func() time.Time
	notify Notifier
}

// NewService creates a new engine service.
func NewService(store storage.Provider, reg registry.Store) *Service {
	return &Service{store: store, reg: reg, now: time.Now}
}

// SetNotifier installs a change callback, e.g. the SSE broker.
func (s *Service) SetNotifier(fn Notifier) {
	s.notify = fn
}

// DocDetail is the full representation of a document.
type DocDetail struct {
	Key         string         `json:"key"`
	Path        string         `json:"path"`
	Content     string         `json:"content"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Checksum    string         `json:"checksum"`
}

// GetDoc resolves a doc key and returns its parsed snapshot.
func (s *Service) GetDoc(_ context.Context, key string) (*DocDetail, error) {
	row, doc, raw, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return buildDetail(key, row.Path, doc, raw), nil
}

// ListDocs returns every registered document.
func (s *Service) ListDocs(_ context.Context) ([]registry.DocRow, error) {
	return s.reg.List()
}

// AuditTrail returns the most recent audit entries for a doc.
func (s *Service) AuditTrail(_ context.Context, key string, limit int) ([]registry.AuditEntry, error) {
	if _, err := s.reg.Resolve(key); err != nil {
		return nil, err
	}
	return s.reg.AuditTrail(key, limit)
}

// CreateDoc writes a new document and registers it. Content may carry its
// own frontmatter; one is synthesized otherwise, and last_updated is
// stamped either way.
func (s *Service) CreateDoc(_ context.Context, key, content string, fmOverrides map[string]any) (*DocDetail, error) {
	if _, err := s.reg.Resolve(key); err == nil {
		return nil, apperr.New(apperr.CodeDocAlreadyExists, "doc %q already exists", key)
	}

	doc, err := document.Split(content)
	if err != nil {
		return nil, err
	}
	fm, err := doc.Frontmatter.Finalize(fmOverrides, s.now())
	if err != nil {
		return nil, err
	}
	doc = &document.Document{Frontmatter: fm, Body: doc.Body, BodyOffset: doc.BodyOffset}

	text, err := doc.Render()
	if err != nil {
		return nil, err
	}

	path := registry.PathForKey(key)
	if err := s.store.Write(path, []byte(text)); err != nil {
		return nil, err
	}
	if err := s.reg.Register(key, path); err != nil {
		return nil, err
	}
	cs := checksum.SumString(text)
	if err := s.reg.SetChecksum(key, cs); err != nil {
		return nil, err
	}
	s.audit(key, "create_doc", "", cs)
	if s.notify != nil {
		s.notify("created", key)
	}
	return buildDetail(key, path, doc, text), nil
}

// DeleteDoc removes a registered document from disk and the registry.
// Audit history for the key is retained.
func (s *Service) DeleteDoc(_ context.Context, key string) error {
	row, err := s.reg.Resolve(key)
	if err != nil {
		return err
	}
	if err := s.store.Delete(row.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := s.reg.Delete(key); err != nil {
		return err
	}
	s.audit(key, "delete_doc", row.Checksum, "")
	if s.notify != nil {
		s.notify("deleted", key)
	}
	return nil
}

// MoveDoc renames a document to a new key, moving the file and
// re-registering it. The old key's audit history stays under the old key;
// the move itself is recorded under the new one.
func (s *Service) MoveDoc(_ context.Context, key, newKey string) (*DocDetail, error) {
	if newKey == "" || newKey == key {
		return nil, apperr.New(apperr.CodeInvalidRequest, "move requires a distinct new_doc key")
	}
	row, doc, raw, err := s.load(key)
	if err != nil {
		return nil, err
	}
	if _, err := s.reg.Resolve(newKey); err == nil {
		return nil, apperr.New(apperr.CodeDocAlreadyExists, "doc %q already exists", newKey)
	}

	newPath := registry.PathForKey(newKey)
	if err := s.store.Move(row.Path, newPath); err != nil {
		return nil, err
	}
	if err := s.reg.Delete(key); err != nil {
		return nil, err
	}
	if err := s.reg.Register(newKey, newPath); err != nil {
		return nil, err
	}
	if err := s.reg.SetChecksum(newKey, row.Checksum); err != nil {
		return nil, err
	}
	s.audit(newKey, "move_doc", row.Checksum, row.Checksum)
	if s.notify != nil {
		s.notify("deleted", key)
		s.notify("created", newKey)
	}
	return buildDetail(newKey, newPath, doc, raw), nil
}

// load resolves a key and reads its current snapshot. A registered key
// whose file has vanished is still DOC_NOT_FOUND: the engine never
// invents an alternate path.
func (s *Service) load(key string) (*registry.DocRow, *document.Document, string, error) {
	row, err := s.reg.Resolve(key)
	if err != nil {
		return nil, nil, "", err
	}
	data, err := s.store.Read(row.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, "", apperr.New(apperr.CodeDocNotFound, "doc %q registered but file %s is missing", key, row.Path)
		}
		return nil, nil, "", err
	}
	doc, err := document.Split(string(data))
	if err != nil {
		return nil, nil, "", err
	}
	return row, doc, string(data), nil
}

// persist finalizes frontmatter on a new body, writes the document
// atomically, refreshes the registry checksum, and records the audit
// entry.
func (s *Service) persist(row *registry.DocRow, doc *document.Document, newBody []string, fmOverrides map[string]any, action, beforeHash string) (*document.Document, string, error) {
	fm, err := doc.Frontmatter.Finalize(fmOverrides, s.now())
	if err != nil {
		return nil, "", err
	}
	out := &document.Document{Frontmatter: fm, Body: newBody, BodyOffset: doc.BodyOffset}
	text, err := out.Render()
	if err != nil {
		return nil, "", err
	}
	if err := s.store.Write(row.Path, []byte(text)); err != nil {
		return nil, "", err
	}
	cs := checksum.SumString(text)
	if err := s.reg.SetChecksum(row.Key, cs); err != nil {
		return nil, "", err
	}
	s.audit(row.Key, action, beforeHash, cs)
	if s.notify != nil {
		s.notify("updated", row.Key)
	}
	return out, cs, nil
}

func (s *Service) audit(key, action, before, after string) {
	// Audit failure must not fail an already-persisted edit.
	_ = s.reg.RecordAudit(registry.AuditEntry{
		DocKey:     key,
		Action:     action,
		BeforeHash: before,
		AfterHash:  after,
	})
}

func buildDetail(key, path string, doc *document.Document, raw string) *DocDetail {
	var fm map[string]any
	if doc.Frontmatter.Present {
		fm = make(map[string]any)
		for _, k := range doc.Frontmatter.Keys() {
			if v, ok := doc.Frontmatter.Get(k); ok {
				fm[k] = v
			}
		}
	}
	return &DocDetail{
		Key:         key,
		Path:        path,
		Content:     raw,
		Body:        document.JoinLines(doc.Body),
		Frontmatter: fm,
		Checksum:    checksum.SumString(raw),
	}
}
