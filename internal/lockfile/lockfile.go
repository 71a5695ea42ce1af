// SPDX-License-Identifier: MPL-2.0

package lockfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// Version is the lockfile format version this build writes and the
	// newest it understands.
	Version = 1

	// DefaultName is the lockfile name next to shedfile.cue.
	DefaultName = "shed.lock"

	// maxLockfileBytes is the upper bound on lockfile size (1 MiB).
	maxLockfileBytes = 1 << 20
)

const (
	// KindLibrary marks a pinned shared-library dependency.
	KindLibrary Kind = "library"
	// KindTool marks a pinned command-line tool dependency.
	KindTool Kind = "tool"
)

var (
	// ErrInvalidLockfile is the sentinel error wrapped by InvalidLockfileError.
	ErrInvalidLockfile = errors.New("invalid lockfile")
	// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
	ErrInvalidKind = errors.New("invalid package kind")
)

type (
	// Kind classifies a pinned package as a library or a tool.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// Package is one pinned (name, platform) resolution.
	Package struct {
		Name        string `toml:"name"`
		Kind        Kind   `toml:"kind"`
		Platform    string `toml:"platform"`
		StoreHash   string `toml:"store_hash"`
		StorePath   string `toml:"store_path"`
		NarURL      string `toml:"nar_url,omitempty"`
		NarHash     string `toml:"nar_hash,omitempty"`
		FileHash    string `toml:"file_hash,omitempty"`
		Compression string `toml:"compression,omitempty"`
	}

	// File is a parsed shed.lock.
	File struct {
		Version  int       `toml:"version"`
		Channel  string    `toml:"channel,omitempty"`
		Packages []Package `toml:"package"`
	}

	// InvalidLockfileError is returned when a lockfile cannot be parsed or
	// fails validation. It wraps ErrInvalidLockfile for errors.Is()
	// compatibility.
	InvalidLockfileError struct {
		Path   string
		Reason string
	}
)

// Error implements the error interface for InvalidKindError.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid package kind %q (valid: library, tool)", e.Value)
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// IsValid returns whether the Kind is one of the defined package kinds,
// and a list of validation errors if it is not.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindLibrary, KindTool:
		return true, nil
	default:
		return false, []error{&InvalidKindError{Value: k}}
	}
}

// Error implements the error interface for InvalidLockfileError.
func (e *InvalidLockfileError) Error() string {
	return fmt.Sprintf("invalid lockfile %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidLockfile for errors.Is() compatibility.
func (e *InvalidLockfileError) Unwrap() error { return ErrInvalidLockfile }

// validate checks one pinned entry for the fields every consumer relies on.
func (p *Package) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("package entry without a name")
	}
	if valid, errs := p.Kind.IsValid(); !valid {
		return fmt.Errorf("package %q: %w", p.Name, errs[0])
	}
	if strings.TrimSpace(p.Platform) == "" {
		return fmt.Errorf("package %q: platform is required", p.Name)
	}
	if strings.TrimSpace(p.StorePath) == "" {
		return fmt.Errorf("package %q (%s): store_path is required", p.Name, p.Platform)
	}
	if strings.TrimSpace(p.StoreHash) == "" {
		return fmt.Errorf("package %q (%s): store_hash is required", p.Name, p.Platform)
	}
	return nil
}

// Load reads and validates a lockfile. A missing file surfaces as an error
// matching fs.ErrNotExist so callers can distinguish "no lock yet" from a
// corrupt one.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading lockfile: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	data, err := io.ReadAll(io.LimitReader(f, maxLockfileBytes+1))
	if err != nil {
		return nil, &InvalidLockfileError{Path: path, Reason: err.Error()}
	}
	if len(data) > maxLockfileBytes {
		return nil, &InvalidLockfileError{Path: path, Reason: fmt.Sprintf("larger than %d bytes", maxLockfileBytes)}
	}

	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, &InvalidLockfileError{Path: path, Reason: err.Error()}
	}

	if file.Version == 0 {
		return nil, &InvalidLockfileError{Path: path, Reason: "missing version"}
	}
	if file.Version > Version {
		return nil, &InvalidLockfileError{Path: path, Reason: fmt.Sprintf("version %d was written by a newer shed", file.Version)}
	}
	for i := range file.Packages {
		if err := file.Packages[i].validate(); err != nil {
			return nil, &InvalidLockfileError{Path: path, Reason: err.Error()}
		}
	}

	return &file, nil
}

// Save writes the lockfile atomically: entries are canonicalized, marshaled
// to a temp file in the destination directory, and renamed into place. The
// caller's File is not mutated.
func Save(path string, file *File) error {
	out := File{
		Version:  Version,
		Channel:  file.Channel,
		Packages: append([]Package(nil), file.Packages...),
	}
	sortPackages(out.Packages)
	for i := range out.Packages {
		if err := out.Packages[i].validate(); err != nil {
			return &InvalidLockfileError{Path: path, Reason: err.Error()}
		}
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding lockfile: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".shed.lock-")
	if err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op once renamed into place

	if _, err := tmp.WriteString("# Generated by shed lock. Manual edits are overwritten.\n\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing lockfile: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}
	return nil
}

// Lookup returns the pinned entry for (name, platform), or false when the
// lock has none.
func (f *File) Lookup(name, platform string) (*Package, bool) {
	for i := range f.Packages {
		p := &f.Packages[i]
		if p.Name == name && p.Platform == platform {
			return p, true
		}
	}
	return nil, false
}

// Upsert replaces the entry matching (name, platform) or appends a new one.
func (f *File) Upsert(pkg Package) {
	for i := range f.Packages {
		if f.Packages[i].Name == pkg.Name && f.Packages[i].Platform == pkg.Platform {
			f.Packages[i] = pkg
			return
		}
	}
	f.Packages = append(f.Packages, pkg)
}

// sortPackages orders entries (platform, kind, name) so saves are stable.
func sortPackages(pkgs []Package) {
	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i].Platform != pkgs[j].Platform {
			return pkgs[i].Platform < pkgs[j].Platform
		}
		if pkgs[i].Kind != pkgs[j].Kind {
			return pkgs[i].Kind < pkgs[j].Kind
		}
		return pkgs[i].Name < pkgs[j].Name
	})
}
