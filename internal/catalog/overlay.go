// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"
)

// maxOverlayBytes is the upper bound on overlay file size (1 MiB).
const maxOverlayBytes = 1 << 20

// ErrInvalidOverlay is the sentinel error wrapped by InvalidOverlayError.
var ErrInvalidOverlay = errors.New("invalid overlay")

type (
	// OverlayCatalog resolves packages from a local YAML file, letting
	// air-gapped and pinned setups answer lookups before any network
	// catalog is consulted. The file maps package names to per-platform
	// entries:
	//
	//	packages:
	//	  webkitgtk_4_1:
	//	    x86_64-linux:
	//	      store_path: /nix/store/<hash>-webkitgtk-2.44.0
	//	      nar_url: nar/<filehash>.nar.xz
	//	      nar_hash: sha256:<nixbase32>
	//
	// An entry whose store_path names an existing local directory and that
	// carries no nar_url is served as already realized.
	OverlayCatalog struct {
		path     string
		packages map[string]map[string]overlayEntry
	}

	// InvalidOverlayError is returned when an overlay file cannot be
	// loaded. It wraps ErrInvalidOverlay for errors.Is() compatibility.
	InvalidOverlayError struct {
		Path   string
		Reason string
	}

	// overlayDocument is the YAML wire format of an overlay file.
	overlayDocument struct {
		Packages map[string]map[string]overlayEntry `yaml:"packages"`
	}

	// overlayEntry is one (name, platform) record in an overlay file.
	overlayEntry struct {
		StorePath   string `yaml:"store_path"`
		NarURL      string `yaml:"nar_url"`
		NarHash     string `yaml:"nar_hash"`
		NarSize     int64  `yaml:"nar_size"`
		FileHash    string `yaml:"file_hash"`
		FileSize    int64  `yaml:"file_size"`
		Compression string `yaml:"compression"`
	}
)

// Compile-time interface check.
var _ Catalog = (*OverlayCatalog)(nil)

// Error implements the error interface for InvalidOverlayError.
func (e *InvalidOverlayError) Error() string {
	return fmt.Sprintf("invalid overlay %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidOverlay for errors.Is() compatibility.
func (e *InvalidOverlayError) Unwrap() error { return ErrInvalidOverlay }

// LoadOverlay parses and validates one overlay file.
func LoadOverlay(path string) (*OverlayCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InvalidOverlayError{Path: path, Reason: err.Error()}
	}
	defer func() { _ = f.Close() }() // read-only file handle

	data, err := io.ReadAll(io.LimitReader(f, maxOverlayBytes+1))
	if err != nil {
		return nil, &InvalidOverlayError{Path: path, Reason: err.Error()}
	}
	if len(data) > maxOverlayBytes {
		return nil, &InvalidOverlayError{Path: path, Reason: fmt.Sprintf("larger than %d bytes", maxOverlayBytes)}
	}

	var doc overlayDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidOverlayError{Path: path, Reason: err.Error()}
	}

	for name, byPlatform := range doc.Packages {
		if valid, errs := shedfile.PackageName(name).IsValid(); !valid {
			return nil, &InvalidOverlayError{Path: path, Reason: errs[0].Error()}
		}
		for plat, entry := range byPlatform {
			if valid, errs := platform.Platform(plat).IsValid(); !valid {
				return nil, &InvalidOverlayError{Path: path, Reason: fmt.Sprintf("package %q: %s", name, errs[0])}
			}
			if err := validateOverlayEntry(name, plat, entry); err != nil {
				return nil, &InvalidOverlayError{Path: path, Reason: err.Error()}
			}
		}
	}

	return &OverlayCatalog{path: path, packages: doc.Packages}, nil
}

// LoadOverlays loads every overlay file in order. The returned catalogs
// preserve the argument order, which is also their chain priority.
func LoadOverlays(paths ...string) ([]Catalog, error) {
	catalogs := make([]Catalog, 0, len(paths))
	for _, p := range paths {
		overlay, err := LoadOverlay(p)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, overlay)
	}
	return catalogs, nil
}

// validateOverlayEntry checks one overlay record for the two supported
// shapes: a bare local store path, or a fetchable archive reference.
func validateOverlayEntry(name, plat string, entry overlayEntry) error {
	if strings.TrimSpace(entry.StorePath) == "" {
		return fmt.Errorf("package %q (%s): store_path is required", name, plat)
	}
	if entry.NarURL == "" {
		return nil
	}
	if _, _, err := parseStorePath(entry.StorePath); err != nil {
		return fmt.Errorf("package %q (%s): fetchable entries need a digest-prefixed store_path: %w", name, plat, err)
	}
	if strings.TrimPrefix(entry.NarHash, "sha256:") == "" {
		return fmt.Errorf("package %q (%s): fetchable entries need nar_hash", name, plat)
	}
	return nil
}

// Name identifies the overlay by file name in logs and diagnostics.
func (o *OverlayCatalog) Name() string {
	return "overlay[" + filepath.Base(o.path) + "]"
}

// Path returns the overlay file path.
func (o *OverlayCatalog) Path() string { return o.path }

// Resolve serves the overlay entry for (name, platform), or an
// UnresolvedPackageError when the file has none.
func (o *OverlayCatalog) Resolve(ctx context.Context, name shedfile.PackageName, plat platform.Platform) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := o.packages[string(name)][string(plat)]
	if !ok {
		return nil, &UnresolvedPackageError{Name: name, Platform: plat, Catalog: o.Name()}
	}

	art := &Artifact{
		Name:        name,
		Platform:    plat,
		StorePath:   entry.StorePath,
		NarURL:      entry.NarURL,
		Compression: entry.Compression,
		FileHash:    strings.TrimPrefix(entry.FileHash, "sha256:"),
		FileSize:    entry.FileSize,
		NarHash:     strings.TrimPrefix(entry.NarHash, "sha256:"),
		NarSize:     entry.NarSize,
	}
	if art.NarURL != "" && art.Compression == "" {
		art.Compression = "xz"
	}

	if hash, storeName, err := parseStorePath(entry.StorePath); err == nil {
		art.StoreHash = hash
		art.StoreName = storeName
	} else {
		art.StoreName = filepath.Base(entry.StorePath)
	}

	// Entries without an archive reference are local pre-realized
	// directories, served as-is and never fetched.
	if art.NarURL == "" {
		art.OutputDir = entry.StorePath
	}

	return art, nil
}
