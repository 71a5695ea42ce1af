// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"crypto/sha256"
	"sync"

	"zombiezen.com/go/nix/nixbase32"

	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"
)

type (
	// MockCatalog is a test double serving artificial artifacts. It can be
	// used to test resolution and session construction without any network
	// or store access.
	MockCatalog struct {
		// Artifacts maps package names to the artifact served for any
		// platform. Names absent from the map resolve to an
		// UnresolvedPackageError.
		Artifacts map[shedfile.PackageName]*Artifact

		// Err, when non-nil, is returned from every Resolve call.
		Err error

		mu sync.Mutex
		// Calls records every Resolve invocation in order.
		Calls []MockResolveCall
	}

	// MockResolveCall is one recorded Resolve invocation.
	MockResolveCall struct {
		Name     shedfile.PackageName
		Platform platform.Platform
	}
)

// Compile-time interface check.
var _ Catalog = (*MockCatalog)(nil)

// NewMockCatalog creates a MockCatalog carrying a deterministic artifact
// for each given name: the store hash is derived from the name, so repeated
// runs and repeated catalogs agree on every field.
func NewMockCatalog(names ...shedfile.PackageName) *MockCatalog {
	m := &MockCatalog{Artifacts: make(map[shedfile.PackageName]*Artifact, len(names))}
	for _, name := range names {
		m.Artifacts[name] = FixtureArtifact(name)
	}
	return m
}

// FixtureArtifact builds a deterministic artifact for a package name. The
// digest is the nixbase32 form of sha256(name), truncated to store-path
// length.
func FixtureArtifact(name shedfile.PackageName) *Artifact {
	sum := sha256.Sum256([]byte(name))
	hash := nixbase32.EncodeToString(sum[:])[:storeHashLen]
	storeName := string(name) + "-1.0"

	return &Artifact{
		Name:        name,
		StoreHash:   hash,
		StoreName:   storeName,
		StorePath:   "/nix/store/" + hash + "-" + storeName,
		NarURL:      "nar/" + hash + ".nar.xz",
		Compression: "xz",
	}
}

// Name identifies the catalog in logs and diagnostics.
func (m *MockCatalog) Name() string { return "mock" }

// Resolve records the call and serves the scripted artifact, stamped with
// the requested platform. The returned artifact is a copy, so callers may
// mutate it freely.
func (m *MockCatalog) Resolve(_ context.Context, name shedfile.PackageName, plat platform.Platform) (*Artifact, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockResolveCall{Name: name, Platform: plat})
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	art, ok := m.Artifacts[name]
	if !ok {
		return nil, &UnresolvedPackageError{Name: name, Platform: plat, Catalog: m.Name()}
	}

	clone := *art
	clone.Platform = plat
	clone.References = append([]string(nil), art.References...)
	return &clone, nil
}

// CallCount returns how many Resolve calls the mock has recorded.
func (m *MockCatalog) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
