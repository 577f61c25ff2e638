// Package registry provides the SQLite-backed mapping from logical doc
// keys to file paths, plus the append-only audit log recorded after every
// successful engine mutation.
package registry

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS docs (
	key        TEXT PRIMARY KEY,
	path       TEXT NOT NULL UNIQUE,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS audit (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_key     TEXT NOT NULL,
	action      TEXT NOT NULL,
	before_hash TEXT NOT NULL DEFAULT '',
	after_hash  TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_doc_key ON audit(doc_key);
`

// DB wraps a sql.DB with registry-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Store defines the registry operations the engine depends on. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing.
type Store interface {
	Register(key, path string) error
	Resolve(key string) (*DocRow, error)
	ResolveByPath(path string) (*DocRow, error)
	List() ([]DocRow, error)
	SetChecksum(key, checksum string) error
	Delete(key string) error
	AllChecksums() (map[string]string, error)
	RecordAudit(e AuditEntry) error
	AuditTrail(key string, limit int) ([]AuditEntry, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
