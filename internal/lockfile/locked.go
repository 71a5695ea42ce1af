// SPDX-License-Identifier: MPL-2.0

package lockfile

import (
	"context"
	"path/filepath"
	"strings"

	"shed-cli/internal/catalog"
	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"
)

// LockedCatalog serves artifacts straight from pinned lock entries. Under
// --frozen it is the only catalog in the chain, so anything the lock does
// not pin is unresolvable by construction.
type LockedCatalog struct {
	file *File
	path string
}

// Compile-time interface check.
var _ catalog.Catalog = (*LockedCatalog)(nil)

// NewLockedCatalog loads the lockfile at path and wraps it as a catalog.
func NewLockedCatalog(path string) (*LockedCatalog, error) {
	file, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LockedCatalog{file: file, path: path}, nil
}

// CatalogFromFile wraps an already-loaded lock as a catalog.
func CatalogFromFile(file *File) *LockedCatalog {
	return &LockedCatalog{file: file}
}

// Name identifies the lock by file name in logs and diagnostics.
func (l *LockedCatalog) Name() string {
	if l.path == "" {
		return "lock"
	}
	return "lock[" + filepath.Base(l.path) + "]"
}

// Resolve returns the pinned artifact for (name, platform), or an
// UnresolvedPackageError when the lock has no matching entry.
func (l *LockedCatalog) Resolve(ctx context.Context, name shedfile.PackageName, plat platform.Platform) (*catalog.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg, ok := l.file.Lookup(string(name), string(plat))
	if !ok {
		return nil, &catalog.UnresolvedPackageError{Name: name, Platform: plat, Catalog: l.Name()}
	}

	art := &catalog.Artifact{
		Name:        name,
		Platform:    plat,
		StoreHash:   pkg.StoreHash,
		StoreName:   storeNameOf(pkg),
		StorePath:   pkg.StorePath,
		NarURL:      pkg.NarURL,
		Compression: pkg.Compression,
		FileHash:    pkg.FileHash,
		NarHash:     pkg.NarHash,
	}
	if art.NarURL != "" && art.Compression == "" {
		art.Compression = "xz"
	}
	return art, nil
}

// PackageFromArtifact builds a lock entry from a resolved artifact.
func PackageFromArtifact(kind Kind, art *catalog.Artifact) Package {
	return Package{
		Name:        string(art.Name),
		Kind:        kind,
		Platform:    string(art.Platform),
		StoreHash:   art.StoreHash,
		StorePath:   art.StorePath,
		NarURL:      art.NarURL,
		NarHash:     art.NarHash,
		FileHash:    art.FileHash,
		Compression: art.Compression,
	}
}

// storeNameOf recovers the human-readable name-version part of the pinned
// store path.
func storeNameOf(pkg *Package) string {
	base := filepath.Base(pkg.StorePath)
	if rest, ok := strings.CutPrefix(base, pkg.StoreHash+"-"); ok {
		return rest
	}
	return base
}
