package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FS keeps artifacts as files under a local directory.
type FS struct {
	dir string
}

// NewFS creates a filesystem backend rooted at dir. The directory is created
// on first write.
func NewFS(dir string) (*FS, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory is required")
	}
	return &FS{dir: dir}, nil
}

func (f *FS) path(name string) string {
	return filepath.Join(f.dir, filepath.FromSlash(name))
}

// Put writes to a temporary sibling file and renames it over the target.
func (f *FS) Put(_ context.Context, name string, data []byte) error {
	target := f.path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Get reads an artifact.
func (f *FS) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Delete removes an artifact if present.
func (f *FS) Delete(_ context.Context, name string) error {
	err := os.Remove(f.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// List returns regular file names under dir, sorted. Temporary files left by
// an interrupted Put are skipped.
func (f *FS) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(f.path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) == ".tmp" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Location returns the root directory.
func (f *FS) Location() string {
	return f.dir
}
