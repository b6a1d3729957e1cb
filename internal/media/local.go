package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// LocalStorage writes files below Root and serves them under PublicPrefix
type LocalStorage struct {
	Root         string
	PublicPrefix string
}

// NewLocalStorage creates a filesystem backend
func NewLocalStorage(root, publicPrefix string) *LocalStorage {
	return &LocalStorage{Root: root, PublicPrefix: publicPrefix}
}

// Save implements Storage
func (s *LocalStorage) Save(ctx context.Context, dir, name string, src io.ReadSeeker, contentType string) (string, error) {
	target := filepath.Join(s.Root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	return saveUnique(name, src, func(candidate string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		full := filepath.Join(target, candidate)
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			return "", ErrExists
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", candidate, err)
		}

		if _, err := io.Copy(f, src); err != nil {
			f.Close()
			os.Remove(full)
			return "", fmt.Errorf("failed to write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(full)
			return "", fmt.Errorf("failed to close %s: %w", candidate, err)
		}

		return path.Join("/", s.PublicPrefix, dir, candidate), nil
	})
}
