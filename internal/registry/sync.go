package registry

import (
	"log/slog"
	"strings"

	"github.com/paxocial/scribe/internal/storage"
)

// KeyForPath derives the registry key of a docs-root relative path:
// the path with its .md extension stripped.
func KeyForPath(path string) string {
	return strings.TrimSuffix(path, ".md")
}

// PathForKey derives the file path of a doc key.
func PathForKey(key string) string {
	return key + ".md"
}

// Sync walks the docs root and brings the registry up to date:
//   - .md files found on disk are registered (key = path minus extension)
//     and their checksums refreshed
//   - registrations whose files no longer exist are removed
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		key := KeyForPath(m.Path)
		disk[key] = struct{}{}

		stored, known := checksums[key]
		if known && stored == m.Checksum {
			continue
		}
		if !known {
			if err := db.Register(key, m.Path); err != nil {
				logger.Warn("sync: register failed", slog.String("key", key), slog.String("error", err.Error()))
				continue
			}
		}
		if err := db.SetChecksum(key, m.Checksum); err != nil {
			logger.Warn("sync: checksum failed", slog.String("key", key), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: registered", slog.String("key", key))
		}
	}

	// Remove stale registrations.
	for key := range checksums {
		if _, ok := disk[key]; !ok {
			if err := db.Delete(key); err != nil {
				logger.Warn("sync: delete failed", slog.String("key", key), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("key", key))
			}
		}
	}

	return nil
}
