package overlay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/starford/favshelf/internal/storage"
)

const lockRetry = 50 * time.Millisecond

// Backend is the persistence boundary of a Store: it loads and saves the
// whole encoded document.
type Backend interface {
	// Load returns the stored document, or nil when nothing is stored yet.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error
}

// Locker is implemented by backends that can exclude other processes for
// the duration of a read-modify-write.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// FileBackend stores a document in a single file, written atomically and
// guarded by an advisory lock file next to it.
type FileBackend struct {
	path string
	lock *flock.Flock
}

// NewFileBackend returns a backend for the file at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path, lock: flock.New(path + ".lock")}
}

// Load implements Backend.
func (b *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("overlay: read %s: %w", b.path, err)
	}
	return data, nil
}

// Save implements Backend.
func (b *FileBackend) Save(_ context.Context, data []byte) error {
	if err := storage.WriteFileAtomic(b.path, data); err != nil {
		return fmt.Errorf("overlay: save %s: %w", b.path, err)
	}
	return nil
}

// Lock implements Locker. It waits for the lock until ctx is done.
func (b *FileBackend) Lock(ctx context.Context) (func() error, error) {
	ok, err := b.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("overlay: lock %s: %w", b.path, err)
	}
	if !ok {
		return nil, fmt.Errorf("overlay: lock %s: not acquired", b.path)
	}
	return b.lock.Unlock, nil
}

// Memory is an in-memory Backend.
type Memory struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemory returns a Memory backend holding data.
func NewMemory(data []byte) *Memory {
	return &Memory{data: data}
}

// Load implements Backend.
func (m *Memory) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

// Save implements Backend.
func (m *Memory) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
