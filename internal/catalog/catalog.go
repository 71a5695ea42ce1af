// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"
)

var (
	// ErrUnresolvedPackage is the sentinel error wrapped by UnresolvedPackageError.
	ErrUnresolvedPackage = errors.New("unresolved package")

	// ErrCatalogUnavailable indicates the catalog endpoint could not be
	// reached or answered with an unexpected status.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

type (
	// Catalog maps (name, platform) pairs to prebuilt artifacts.
	// Implementations must be safe for concurrent use.
	Catalog interface {
		// Resolve returns the artifact published for the given package name
		// and platform. A name the catalog does not carry returns an error
		// wrapping ErrUnresolvedPackage.
		Resolve(ctx context.Context, name shedfile.PackageName, plat platform.Platform) (*Artifact, error)

		// Name identifies the catalog in logs and diagnostics.
		Name() string
	}

	// Artifact describes one prebuilt package as published by a catalog.
	Artifact struct {
		// Name is the catalog name the artifact was resolved from.
		Name shedfile.PackageName
		// Platform is the platform half of the lookup key.
		Platform platform.Platform

		// StoreHash is the nixbase32 digest prefix of the store path.
		StoreHash string
		// StoreName is the name-version part of the store path
		// (e.g. "webkitgtk-2.44.0").
		StoreName string
		// StorePath is the full upstream store path
		// ("/nix/store/<hash>-<name>").
		StorePath string

		// OutputDir is the local directory the artifact is (or will be)
		// unpacked into. Assigned by Store.Assign; empty until then unless
		// the catalog entry points at an already-unpacked local directory.
		OutputDir string

		// NarURL is the archive location relative to the cache base URL.
		NarURL string
		// Compression names the archive compression: "xz", "bzip2" or "none".
		Compression string
		// FileHash is the sha256 of the compressed archive in nixbase32 form.
		FileHash string
		// FileSize is the compressed archive size in bytes.
		FileSize int64
		// NarHash is the sha256 of the unpacked archive in nixbase32 form.
		NarHash string
		// NarSize is the unpacked archive size in bytes.
		NarSize int64
		// References lists store names this artifact links against.
		References []string
	}

	// UnresolvedPackageError is returned when a catalog has no entry for a
	// (name, platform) pair. It wraps ErrUnresolvedPackage for errors.Is()
	// compatibility.
	UnresolvedPackageError struct {
		Name     shedfile.PackageName
		Platform platform.Platform
		// Catalog names the catalog that was consulted.
		Catalog string
	}

	// Chain consults catalogs in order and returns the first successful
	// resolution. Only unresolved-package misses fall through to the next
	// catalog; any other failure aborts the chain.
	Chain []Catalog
)

// Compile-time interface check.
var _ Catalog = (Chain)(nil)

// Error implements the error interface for UnresolvedPackageError.
func (e *UnresolvedPackageError) Error() string {
	if e.Catalog != "" {
		return fmt.Sprintf("package %q is not available for platform %q in catalog %s", e.Name, e.Platform, e.Catalog)
	}
	return fmt.Sprintf("package %q is not available for platform %q", e.Name, e.Platform)
}

// Unwrap returns ErrUnresolvedPackage for errors.Is() compatibility.
func (e *UnresolvedPackageError) Unwrap() error { return ErrUnresolvedPackage }

// Resolve tries each catalog in order. A miss (ErrUnresolvedPackage) moves
// on to the next catalog; the final miss is reported against the whole
// chain. Any other error is returned immediately.
func (c Chain) Resolve(ctx context.Context, name shedfile.PackageName, plat platform.Platform) (*Artifact, error) {
	if len(c) == 0 {
		return nil, &UnresolvedPackageError{Name: name, Platform: plat, Catalog: c.Name()}
	}

	for _, cat := range c {
		art, err := cat.Resolve(ctx, name, plat)
		if err == nil {
			return art, nil
		}
		if errors.Is(err, ErrUnresolvedPackage) {
			continue
		}
		return nil, err
	}

	return nil, &UnresolvedPackageError{Name: name, Platform: plat, Catalog: c.Name()}
}

// Name joins the member catalog names for diagnostics.
func (c Chain) Name() string {
	if len(c) == 0 {
		return "empty"
	}
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name()
	}
	return strings.Join(names, "+")
}
