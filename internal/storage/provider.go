// Package storage defines the workspace file-system abstraction.
package storage

import "github.com/starford/raido/internal/models"

// Provider is the interface for workspace file operations. All paths are
// relative to the workspace root.
type Provider interface {
	// List walks dir and returns metadata for every file whose name ends
	// with one of the given extensions (any file when none are given).
	List(dir string, exts ...string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
	// RemoveTree removes dir and everything under it.
	RemoveTree(dir string) error
	// Abs resolves path against the workspace root.
	Abs(path string) (string, error)
}
