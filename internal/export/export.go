// Package export reads and writes the source export: the list of original
// albums produced by the capture tool.
package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/parser"
	"github.com/starford/favshelf/internal/storage"
)

const lockRetry = 50 * time.Millisecond

// File is the export file. Parsed albums are cached by content checksum, so
// repeated loads of an unchanged file skip decoding. Returned albums are
// shared and must not be modified.
type File struct {
	path string
	lock *flock.Flock

	mu     sync.Mutex
	sum    [sha256.Size]byte
	albums []models.Album
}

// Open returns the export at path. The file does not need to exist.
func Open(path string) *File {
	return &File{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Albums loads the export. A missing file is an empty export.
func (f *File) Albums() ([]models.Album, error) {
	albums, _, err := f.load()
	return albums, err
}

// Refresh reloads the export and reports whether its content changed since
// the previous load.
func (f *File) Refresh() (bool, error) {
	_, changed, err := f.load()
	return changed, err
}

func (f *File) load() ([]models.Album, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		return nil, false, fmt.Errorf("export: read %s: %w", f.path, err)
	}
	sum := sha256.Sum256(data)

	f.mu.Lock()
	defer f.mu.Unlock()
	if sum == f.sum {
		return f.albums, false, nil
	}
	albums, err := parser.ParseExport(data)
	if err != nil {
		return nil, false, err
	}
	f.sum = sum
	f.albums = albums
	return albums, true, nil
}

// ReplaceAlbum replaces the notes of the named album wholesale, appending the
// album when it does not exist yet.
func (f *File) ReplaceAlbum(ctx context.Context, name string, notes []models.NoteRecord) error {
	ok, err := f.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("export: lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("export: lock not acquired")
	}
	defer func() { _ = f.lock.Unlock() }()

	current, err := f.Albums()
	if err != nil {
		return err
	}
	albums := make([]models.Album, 0, len(current)+1)
	replaced := false
	for _, a := range current {
		if a.Name == name {
			a = models.Album{Name: name, Notes: notes}
			replaced = true
		}
		albums = append(albums, a)
	}
	if !replaced {
		albums = append(albums, models.Album{Name: name, Notes: notes})
	}
	return f.save(albums)
}

// Save overwrites the export with albums.
func (f *File) Save(ctx context.Context, albums []models.Album) error {
	ok, err := f.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("export: lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("export: lock not acquired")
	}
	defer func() { _ = f.lock.Unlock() }()
	return f.save(albums)
}

func (f *File) save(albums []models.Album) error {
	if albums == nil {
		albums = []models.Album{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(albums); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	if err := storage.WriteFileAtomic(f.path, buf.Bytes()); err != nil {
		return fmt.Errorf("export: save: %w", err)
	}
	return nil
}
