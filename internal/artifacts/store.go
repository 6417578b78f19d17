// Package artifacts persists the normalized output workbooks. The pipeline
// itself never decides file format or location; it hands bytes to a store and
// gets back an opaque reference.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store saves completed artifacts and serves them back by reference.
type Store interface {
	// Save persists the artifact under the given name and returns the
	// reference a poller can later download it by.
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Open returns the artifact contents for a reference produced by Save.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// LocalStore keeps artifacts as plain files under a base directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir %q: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save implements the Store interface. Subdirectories in the name (vendor
// folders) are created on demand.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create vendor dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %q: %w", name, err)
	}
	return name, nil
}

// Open implements the Store interface.
func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact %q: %w", ref, err)
	}
	return f, nil
}

// resolve maps a reference onto the base directory and rejects anything that
// would escape it.
func (s *LocalStore) resolve(ref string) (string, error) {
	clean := filepath.Clean("/" + ref)
	path := filepath.Join(s.baseDir, clean)
	if !strings.HasPrefix(path, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid artifact reference %q", ref)
	}
	return path, nil
}

var _ Store = (*LocalStore)(nil)
