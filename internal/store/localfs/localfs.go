// Package localfs keeps uploaded images in a local directory. The server
// exposes that directory so the returned URLs resolve.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store implements store.ImageStore on the filesystem.
type Store struct {
	dir     string
	baseURL string
}

// New creates the directory if needed. baseURL is prefixed to object names.
func New(dir, baseURL string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("localfs: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: create %s: %w", dir, err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the image directory.
func (s *Store) Dir() string { return s.dir }

// Put writes body to dir/name. Existing files are never overwritten.
func (s *Store) Put(ctx context.Context, name, _ string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("localfs: invalid object name %q", name)
	}
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("localfs: create %s: %w", name, err)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("localfs: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("localfs: close %s: %w", name, err)
	}
	return s.baseURL + "/" + name, nil
}
