package jobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Repository loads and saves the whole job document. Key identifies the
// underlying store so writers to the same store can be serialised.
type Repository interface {
	Key() string
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// FileRepository persists the document as a single JSON file.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository for the file at path. Relative
// paths are made absolute so every spelling of one file shares a lock.
func NewFileRepository(path string) *FileRepository {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &FileRepository{path: filepath.Clean(path)}
}

// Key returns the absolute store path.
func (r *FileRepository) Key() string {
	return r.path
}

// Path returns the store file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and parses the store file.
func (r *FileRepository) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// ReadRaw returns the store file bytes as they are on disk.
func (r *FileRepository) ReadRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(r.path)
}

// Save writes the document to a temp file in the store directory and renames
// it over the store path, so readers see either the old or the new document.
// The existing file mode is kept.
func (r *FileRepository) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	perm := fs.FileMode(0600)
	if info, err := os.Stat(r.path); err == nil {
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}

	return os.Rename(tmpPath, r.path)
}

// MemoryRepository keeps the encoded document in memory. It is used as a
// test double and counts successful saves.
type MemoryRepository struct {
	key string

	mu     sync.Mutex
	data   []byte
	saves  int
	saveFn func() error
}

// NewMemoryRepository creates an in-memory repository holding data.
func NewMemoryRepository(key string, data []byte) *MemoryRepository {
	return &MemoryRepository{key: key, data: append([]byte(nil), data...)}
}

// Key returns the repository key.
func (r *MemoryRepository) Key() string {
	return r.key
}

// Load parses the stored bytes.
func (r *MemoryRepository) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	data := append([]byte(nil), r.data...)
	r.mu.Unlock()
	return ParseDocument(data)
}

// Save encodes and stores doc.
func (r *MemoryRepository) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveFn != nil {
		if err := r.saveFn(); err != nil {
			return err
		}
	}
	r.data = data
	r.saves++
	return nil
}

// Bytes returns a copy of the stored document.
func (r *MemoryRepository) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.data...)
}

// Saves returns the number of successful saves.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// FailSaves makes every following Save return err.
func (r *MemoryRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveFn = func() error { return err }
}
