package registry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/storage"
)

// watcherTestEnv sets up a docs dir, storage, and registry for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	docsDir := t.TempDir()
	store, err := storage.NewFS(docsDir)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	return docsDir, store, db
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileRegistered(t *testing.T) {
	docsDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, docsDir, logger, func(kind, key string) {
		mu.Lock()
		events = append(events, kind+":"+key)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(docsDir, "new.md"), []byte("# New\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		row, err := db.Resolve("new")
		return err == nil && row.Checksum != ""
	}, "new file not registered by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new" {
				return true
			}
		}
		return false
	}, "created event not delivered")
}

func TestWatcher_RemoveDropsRegistration(t *testing.T) {
	docsDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	path := filepath.Join(docsDir, "gone.md")
	_ = os.WriteFile(path, []byte("bye\n"), 0o644)
	if err := Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, docsDir, logger, nil)

	time.Sleep(100 * time.Millisecond)
	_ = os.Remove(path)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.Resolve("gone")
		return apperr.IsCode(err, apperr.CodeDocNotFound)
	}, "removed file still registered")
}

func TestWatcher_NewSubdirRegistered(t *testing.T) {
	docsDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, docsDir, logger, nil)

	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(docsDir, "guides")
	_ = os.MkdirAll(sub, 0o755)
	// Slight delay so the new directory joins the watch list first.
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.Resolve("guides/deep")
		return err == nil
	}, "file in new subdirectory not registered")
}
