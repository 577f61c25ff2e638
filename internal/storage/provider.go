// Package storage defines the docs-root file-system abstraction. The
// engine core never touches the disk; all I/O funnels through a Provider
// so the atomic write-temp-then-rename policy lives in one place.
package storage

import "time"

// DocMetadata is a lightweight representation returned by list operations.
type DocMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for document file operations. All paths are
// relative to the docs root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]DocMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
