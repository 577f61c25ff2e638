package registry

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "scribe-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM docs`).Scan(&count); err != nil {
		t.Fatalf("docs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM audit`).Scan(&count); err != nil {
		t.Fatalf("audit table missing: %v", err)
	}
}

func TestRegisterAndResolve(t *testing.T) {
	db := testDB(t)
	if err := db.Register("guides/setup", "guides/setup.md"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	row, err := db.Resolve("guides/setup")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if row.Path != "guides/setup.md" {
		t.Errorf("path = %q", row.Path)
	}

	// Re-registering updates the path instead of failing.
	if err := db.Register("guides/setup", "moved/setup.md"); err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	row, _ = db.Resolve("guides/setup")
	if row.Path != "moved/setup.md" {
		t.Errorf("path after upsert = %q", row.Path)
	}
}

func TestResolveUnknownKey(t *testing.T) {
	db := testDB(t)
	_, err := db.Resolve("ghost")
	if !apperr.IsCode(err, apperr.CodeDocNotFound) {
		t.Fatalf("err = %v, want DOC_NOT_FOUND", err)
	}
}

func TestSetChecksumAndList(t *testing.T) {
	db := testDB(t)
	_ = db.Register("b", "b.md")
	_ = db.Register("a", "a.md")
	if err := db.SetChecksum("a", "hash-a"); err != nil {
		t.Fatalf("SetChecksum: %v", err)
	}

	rows, err := db.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 || rows[0].Key != "a" || rows[1].Key != "b" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Checksum != "hash-a" {
		t.Errorf("checksum = %q", rows[0].Checksum)
	}
}

func TestAuditTrail(t *testing.T) {
	db := testDB(t)
	for i, action := range []string{"create_doc", "replace_range", "generate_toc"} {
		err := db.RecordAudit(AuditEntry{
			DocKey:     "doc",
			Action:     action,
			BeforeHash: "before",
			AfterHash:  "after",
		})
		if err != nil {
			t.Fatalf("RecordAudit %d: %v", i, err)
		}
	}
	_ = db.RecordAudit(AuditEntry{DocKey: "other", Action: "create_doc"})

	entries, err := db.AuditTrail("doc", 2)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	// Most recent first.
	if entries[0].Action != "generate_toc" || entries[1].Action != "replace_range" {
		t.Errorf("order = %s, %s", entries[0].Action, entries[1].Action)
	}
}

func TestKeyPathRoundTrip(t *testing.T) {
	if got := KeyForPath("guides/setup.md"); got != "guides/setup" {
		t.Errorf("KeyForPath = %q", got)
	}
	if got := PathForKey("guides/setup"); got != "guides/setup.md" {
		t.Errorf("PathForKey = %q", got)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := discardLogger()

	_ = store.Write("a.md", []byte("alpha"))
	_ = store.Write("sub/b.md", []byte("beta"))

	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rows, _ := db.List()
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if _, err := db.Resolve("sub/b"); err != nil {
		t.Errorf("sub/b not registered: %v", err)
	}

	// Deleting a file removes its registration on the next sync.
	_ = store.Delete("a.md")
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if _, err := db.Resolve("a"); !apperr.IsCode(err, apperr.CodeDocNotFound) {
		t.Errorf("stale registration survived: %v", err)
	}
}
