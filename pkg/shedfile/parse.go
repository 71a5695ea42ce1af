// SPDX-License-Identifier: MPL-2.0

package shedfile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shed-cli/pkg/cueutil"
)

// DefaultFilename is the manifest filename shed looks for.
const DefaultFilename = "shedfile.cue"

// ErrNotFound is returned by Find when no shedfile exists in the start
// directory or any of its ancestors.
var ErrNotFound = errors.New("no shedfile found")

//go:embed schema.cue
var shedfileSchema string

// Parse reads and parses a shedfile from the given path.
func Parse(path FilesystemPath) (*Shedfile, error) {
	pathStr := string(path)
	data, err := os.ReadFile(pathStr)
	if err != nil {
		return nil, fmt.Errorf("failed to read shedfile at %s: %w", path, err)
	}

	return ParseBytes(data, pathStr)
}

// ParseBytes parses shedfile content from bytes.
// Uses cueutil.ParseAndDecodeString for the 3-step CUE parsing flow:
// compile schema → compile user data → validate and decode.
func ParseBytes(data []byte, path string) (*Shedfile, error) {
	result, err := cueutil.ParseAndDecodeString[Shedfile](
		shedfileSchema,
		data,
		"#Shedfile",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	sf := result.Value
	sf.FilePath = FilesystemPath(path)

	// Cross-field checks the schema cannot express; collect all errors.
	if errs := sf.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return sf, nil
}

// Find locates a shedfile by walking up from startDir to the filesystem
// root, returning the first match. Returns ErrNotFound (wrapped) when no
// ancestor directory contains one.
func Find(startDir string) (FilesystemPath, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, DefaultFilename)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return FilesystemPath(candidate), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, startDir)
		}
		dir = parent
	}
}

// Load finds and parses the shedfile governing startDir.
func Load(startDir string) (*Shedfile, error) {
	path, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	return Parse(path)
}
