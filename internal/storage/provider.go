// Package storage is the data-root file-system layer: atomic writes under a
// traversal-safe root and the scanner that discovers downloaded notes.
package storage

import (
	"io/fs"
	"os"
)

// Provider is the interface for data-root file operations. All paths are
// relative to the root.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// ReadDir lists a directory in ascending name order.
	ReadDir(path string) ([]fs.DirEntry, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// Open opens the file at path for reading.
	Open(path string) (*os.File, error)
}
