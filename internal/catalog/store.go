// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidStore is the sentinel error wrapped by InvalidStoreError.
var ErrInvalidStore = errors.New("invalid store")

type (
	// Store is the local directory tree artifacts are unpacked into. Each
	// artifact occupies <root>/<hash>-<name>/ so distinct builds of the
	// same package never collide.
	Store struct {
		root string
	}

	// InvalidStoreError is returned when a store root cannot be used.
	// It wraps ErrInvalidStore for errors.Is() compatibility.
	InvalidStoreError struct {
		Root   string
		Reason string
	}
)

// Error implements the error interface for InvalidStoreError.
func (e *InvalidStoreError) Error() string {
	return fmt.Sprintf("invalid store root %q: %s", e.Root, e.Reason)
}

// Unwrap returns ErrInvalidStore for errors.Is() compatibility.
func (e *InvalidStoreError) Unwrap() error { return ErrInvalidStore }

// NewStore creates the store root directory if needed and returns the Store.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, &InvalidStoreError{Root: root, Reason: "empty path"}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &InvalidStoreError{Root: root, Reason: err.Error()}
	}
	return &Store{root: root}, nil
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// Dir returns the output directory an artifact occupies inside the store.
func (s *Store) Dir(art *Artifact) string {
	return filepath.Join(s.root, art.StoreHash+"-"+art.StoreName)
}

// Assign sets the artifact's OutputDir to its store location. Artifacts that
// already carry an output directory (local overlay entries) are left alone.
func (s *Store) Assign(art *Artifact) {
	if art.OutputDir != "" {
		return
	}
	art.OutputDir = s.Dir(art)
}

// Realized reports whether the artifact's output directory already exists.
func (s *Store) Realized(art *Artifact) bool {
	if art.OutputDir == "" {
		return false
	}
	info, err := os.Stat(art.OutputDir)
	return err == nil && info.IsDir()
}
