package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"vidlingo/internal/fileutil"
)

// FS stores artifacts under a root directory.
type FS struct {
	root string
}

// NewFS returns a filesystem store rooted at root.
func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("artifact root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root returns the store's base directory.
func (s *FS) Root() string { return s.root }

// Path returns the file location for key without touching the filesystem.
func (s *FS) Path(key Key) (string, error) {
	rel, err := key.RelPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

// Has reports whether a regular file exists for key.
func (s *FS) Has(_ context.Context, key Key) (bool, error) {
	p, err := s.Path(key)
	if err != nil {
		return false, err
	}
	return fileutil.RegularFileExists(p)
}

// Read returns the artifact contents or ErrNotFound.
func (s *FS) Read(_ context.Context, key Key) ([]byte, error) {
	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return data, nil
}

// Write stores data atomically, creating intermediate directories.
func (s *FS) Write(_ context.Context, key Key, data []byte) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(p, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", key, err)
	}
	return nil
}

// Delete removes the artifact; a missing artifact is not an error.
func (s *FS) Delete(_ context.Context, key Key) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := fileutil.RemoveIfExists(p); err != nil {
		return fmt.Errorf("delete artifact %s: %w", key, err)
	}
	return nil
}

// EnsureParent creates the directory that will hold key's file.
func (s *FS) EnsureParent(key Key) (string, error) {
	p, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}
	return p, nil
}
