package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paxocial/scribe/internal/apperr"
)

// DocRow represents one registered document.
type DocRow struct {
	Key       string    `json:"key"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditEntry is one record in the append-only audit log.
type AuditEntry struct {
	ID         int64     `json:"id"`
	DocKey     string    `json:"doc_key"`
	Action     string    `json:"action"`
	BeforeHash string    `json:"before_hash"`
	AfterHash  string    `json:"after_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// Register inserts or updates the key → path mapping.
func (db *DB) Register(key, path string) error {
	_, err := db.conn.Exec(`
		INSERT INTO docs (key, path, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			path       = excluded.path,
			updated_at = excluded.updated_at
	`, key, path, time.Now())
	if err != nil {
		return fmt.Errorf("registry: register %s: %w", key, err)
	}
	return nil
}

// Resolve returns the registered row for a doc key. Unknown keys are
// DOC_NOT_FOUND: the engine never falls back to guessing a path.
func (db *DB) Resolve(key string) (*DocRow, error) {
	return db.queryOne(`SELECT key, path, checksum, updated_at FROM docs WHERE key = ?`, key)
}

// ResolveByPath returns the registered row for a file path.
func (db *DB) ResolveByPath(path string) (*DocRow, error) {
	return db.queryOne(`SELECT key, path, checksum, updated_at FROM docs WHERE path = ?`, path)
}

func (db *DB) queryOne(query, arg string) (*DocRow, error) {
	var row DocRow
	err := db.conn.QueryRow(query, arg).Scan(&row.Key, &row.Path, &row.Checksum, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeDocNotFound, "doc %q is not registered", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: resolve %s: %w", arg, err)
	}
	return &row, nil
}

// List returns every registered document ordered by key.
func (db *DB) List() ([]DocRow, error) {
	rows, err := db.conn.Query(`SELECT key, path, checksum, updated_at FROM docs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		var r DocRow
		if err := rows.Scan(&r.Key, &r.Path, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetChecksum updates the stored content checksum for a doc.
func (db *DB) SetChecksum(key, checksum string) error {
	_, err := db.conn.Exec(`UPDATE docs SET checksum = ?, updated_at = ? WHERE key = ?`,
		checksum, time.Now(), key)
	if err != nil {
		return fmt.Errorf("registry: set checksum %s: %w", key, err)
	}
	return nil
}

// Delete removes a doc registration. Audit history is kept.
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM docs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("registry: delete %s: %w", key, err)
	}
	return nil
}

// AllChecksums returns the stored checksum for every registered doc.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT key, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("registry: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, cs string
		if err := rows.Scan(&key, &cs); err != nil {
			return nil, err
		}
		out[key] = cs
	}
	return out, rows.Err()
}

// RecordAudit appends one entry to the audit log.
func (db *DB) RecordAudit(e AuditEntry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO audit (doc_key, action, before_hash, after_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.DocKey, e.Action, e.BeforeHash, e.AfterHash, created)
	if err != nil {
		return fmt.Errorf("registry: record audit %s: %w", e.DocKey, err)
	}
	return nil
}

// AuditTrail returns the most recent audit entries for a doc key.
func (db *DB) AuditTrail(key string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, doc_key, action, before_hash, after_hash, created_at
		FROM audit WHERE doc_key = ?
		ORDER BY id DESC LIMIT ?
	`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("registry: audit trail %s: %w", key, err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.DocKey, &e.Action, &e.BeforeHash, &e.AfterHash, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
