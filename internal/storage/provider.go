// Package storage defines the file-system abstraction for widget definitions and snapshots.
package storage

import "github.com/starford/autoindex/internal/models"

// Provider is the interface for rooted file operations.
type Provider interface {
	// List returns metadata for every matching file under dir (relative to root).
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
