package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"genreclf/internal/fileutil"
	"genreclf/internal/services"
)

// FileStore keeps each key as a file in a directory. Writes are atomic so a
// reader never observes a partially written blob.
type FileStore struct {
	dir string
}

// NewFileStore creates dir when missing and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "registry", "open file store", "directory required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrRegistry, "registry", "create directory", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Fetch reads the blob stored under key.
func (s *FileStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("registry key %q: %w", key, ErrNotFound)
		}
		return nil, services.Wrap(services.ErrRegistry, "registry", "read", key, err)
	}
	return data, nil
}

// Put replaces the blob stored under key.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.path(key), data, 0o644); err != nil {
		return services.Wrap(services.ErrRegistry, "registry", "write", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}
