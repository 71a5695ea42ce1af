// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"shed-cli/internal/catalog"
	"shed-cli/internal/lockfile"
	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"
)

// ErrPlatformNotDeclared is the sentinel error wrapped by
// PlatformNotDeclaredError.
var ErrPlatformNotDeclared = errors.New("platform not declared")

type (
	// Resolver resolves manifest dependency lists against a catalog and
	// assigns every artifact its place in the local store.
	Resolver struct {
		catalog catalog.Catalog
		store   *catalog.Store
		logger  *log.Logger
	}

	// Option configures a Resolver during construction.
	Option func(*Resolver)

	// Resolved is one resolved dependency with the directories consumers
	// care about: LibDir feeds the library search path, BinDir feeds PATH.
	Resolved struct {
		Artifact *catalog.Artifact
		LibDir   string
		BinDir   string
	}

	// Resolution is the complete, ordered outcome of resolving one
	// shedfile for one platform. Same manifest and catalog state always
	// produce the same ordering.
	Resolution struct {
		Platform  platform.Platform
		Libraries []Resolved
		Tools     []Resolved
	}

	// PlatformNotDeclaredError is returned when the session platform has no
	// entry in the shedfile. It wraps ErrPlatformNotDeclared for
	// errors.Is() compatibility.
	PlatformNotDeclaredError struct {
		Platform platform.Platform
		Declared []shedfile.PlatformID
	}
)

// Error implements the error interface for PlatformNotDeclaredError.
func (e *PlatformNotDeclaredError) Error() string {
	if len(e.Declared) == 0 {
		return fmt.Sprintf("platform %q is not declared by the shedfile (no platforms declared)", e.Platform)
	}
	declared := make([]string, len(e.Declared))
	for i, d := range e.Declared {
		declared[i] = string(d)
	}
	return fmt.Sprintf("platform %q is not declared by the shedfile (declared: %s)", e.Platform, strings.Join(declared, ", "))
}

// Unwrap returns ErrPlatformNotDeclared for errors.Is() compatibility.
func (e *PlatformNotDeclaredError) Unwrap() error { return ErrPlatformNotDeclared }

// WithLogger sets the logger used for resolution progress.
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver answering lookups from cat and assigning
// output directories inside store.
func NewResolver(cat catalog.Catalog, store *catalog.Store, opts ...Option) *Resolver {
	r := &Resolver{catalog: cat, store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "resolve"})
	}
	return r
}

// Resolve maps every library and tool the shedfile declares for plat to a
// store artifact. The first name the catalog cannot answer aborts with its
// typed error; nothing partial is returned.
func (r *Resolver) Resolve(ctx context.Context, sf *shedfile.Shedfile, plat platform.Platform) (*Resolution, error) {
	pc, ok := sf.PlatformFor(shedfile.PlatformID(plat))
	if !ok {
		return nil, &PlatformNotDeclaredError{Platform: plat, Declared: sf.SupportedPlatforms()}
	}

	cache := make(map[shedfile.PackageName]*catalog.Artifact)

	libraries, err := r.resolveList(ctx, pc.Libraries, plat, cache)
	if err != nil {
		return nil, fmt.Errorf("resolving libraries: %w", err)
	}
	tools, err := r.resolveList(ctx, pc.Tools, plat, cache)
	if err != nil {
		return nil, fmt.Errorf("resolving tools: %w", err)
	}

	r.logger.Debug("resolution complete", "platform", plat, "libraries", len(libraries), "tools", len(tools))
	return &Resolution{Platform: plat, Libraries: libraries, Tools: tools}, nil
}

// resolveList resolves one ordered name list. Repeated names collapse to
// the first occurrence; the cross-list cache keeps a name appearing as both
// library and tool to a single catalog lookup.
func (r *Resolver) resolveList(ctx context.Context, names []shedfile.PackageName, plat platform.Platform, cache map[shedfile.PackageName]*catalog.Artifact) ([]Resolved, error) {
	out := make([]Resolved, 0, len(names))
	seen := make(map[shedfile.PackageName]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		art, ok := cache[name]
		if !ok {
			var err error
			art, err = r.catalog.Resolve(ctx, name, plat)
			if err != nil {
				return nil, err
			}
			r.store.Assign(art)
			cache[name] = art
			r.logger.Debug("resolved", "name", name, "store", art.StoreName)
		}

		out = append(out, Resolved{
			Artifact: art,
			LibDir:   filepath.Join(art.OutputDir, "lib"),
			BinDir:   filepath.Join(art.OutputDir, "bin"),
		})
	}
	return out, nil
}

// Artifacts returns every distinct artifact in resolution order, libraries
// first. The slice is safe for the caller to reorder.
func (r *Resolution) Artifacts() []*catalog.Artifact {
	seen := make(map[shedfile.PackageName]bool, len(r.Libraries)+len(r.Tools))
	out := make([]*catalog.Artifact, 0, len(r.Libraries)+len(r.Tools))
	for _, res := range r.Libraries {
		if !seen[res.Artifact.Name] {
			seen[res.Artifact.Name] = true
			out = append(out, res.Artifact)
		}
	}
	for _, res := range r.Tools {
		if !seen[res.Artifact.Name] {
			seen[res.Artifact.Name] = true
			out = append(out, res.Artifact)
		}
	}
	return out
}

// LibDirs returns the library directories in resolution order.
func (r *Resolution) LibDirs() []string {
	dirs := make([]string, len(r.Libraries))
	for i, res := range r.Libraries {
		dirs[i] = res.LibDir
	}
	return dirs
}

// BinDirs returns the tool bin directories in resolution order.
func (r *Resolution) BinDirs() []string {
	dirs := make([]string, len(r.Tools))
	for i, res := range r.Tools {
		dirs[i] = res.BinDir
	}
	return dirs
}

// Lock pins this resolution as a lockfile. A name declared as both library
// and tool is pinned once, as a tool.
func (r *Resolution) Lock(channel string) *lockfile.File {
	f := &lockfile.File{Channel: channel}
	for _, res := range r.Libraries {
		f.Upsert(lockfile.PackageFromArtifact(lockfile.KindLibrary, res.Artifact))
	}
	for _, res := range r.Tools {
		f.Upsert(lockfile.PackageFromArtifact(lockfile.KindTool, res.Artifact))
	}
	return f
}
