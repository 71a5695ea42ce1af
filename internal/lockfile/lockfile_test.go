// SPDX-License-Identifier: MPL-2.0

package lockfile

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makePackage(name, plat string, kind Kind) Package {
	return Package{
		Name:      name,
		Kind:      kind,
		Platform:  plat,
		StoreHash: "0123456789abcdfghijklmnpqrsvwxyz",
		StorePath: "/nix/store/0123456789abcdfghijklmnpqrsvwxyz-" + name + "-1.0",
		NarURL:    "nar/" + name + ".nar.xz",
		NarHash:   "abcdef",
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultName)
	in := &File{
		Channel: "release-24.05",
		Packages: []Package{
			makePackage("webkitgtk_4_1", "x86_64-linux", KindLibrary),
			makePackage("protoc", "x86_64-linux", KindTool),
			makePackage("gtk3", "x86_64-linux", KindLibrary),
		},
	}

	if err := Save(path, in); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if out.Version != Version {
		t.Errorf("Version = %d, want %d", out.Version, Version)
	}
	if out.Channel != "release-24.05" {
		t.Errorf("Channel = %q, want %q", out.Channel, "release-24.05")
	}
	if len(out.Packages) != 3 {
		t.Fatalf("got %d packages, want 3", len(out.Packages))
	}

	// Entries come back canonicalized: libraries before tools, names sorted.
	wantOrder := []string{"gtk3", "webkitgtk_4_1", "protoc"}
	for i, want := range wantOrder {
		if out.Packages[i].Name != want {
			t.Errorf("Packages[%d].Name = %q, want %q", i, out.Packages[i].Name, want)
		}
	}

	pkg, ok := out.Lookup("gtk3", "x86_64-linux")
	if !ok {
		t.Fatal("Lookup() should find gtk3")
	}
	if pkg.StorePath != "/nix/store/0123456789abcdfghijklmnpqrsvwxyz-gtk3-1.0" {
		t.Errorf("StorePath = %q", pkg.StorePath)
	}
	if pkg.NarURL != "nar/gtk3.nar.xz" {
		t.Errorf("NarURL = %q, want %q", pkg.NarURL, "nar/gtk3.nar.xz")
	}
}

func TestSave_Deterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.lock")
	b := filepath.Join(dir, "b.lock")

	if err := Save(a, &File{Packages: []Package{
		makePackage("gtk3", "x86_64-linux", KindLibrary),
		makePackage("trunk", "x86_64-linux", KindTool),
	}}); err != nil {
		t.Fatalf("Save(a) returned error: %v", err)
	}
	if err := Save(b, &File{Packages: []Package{
		makePackage("trunk", "x86_64-linux", KindTool),
		makePackage("gtk3", "x86_64-linux", KindLibrary),
	}}); err != nil {
		t.Fatalf("Save(b) returned error: %v", err)
	}

	dataA, err := os.ReadFile(a)
	if err != nil {
		t.Fatalf("reading a.lock: %v", err)
	}
	dataB, err := os.ReadFile(b)
	if err != nil {
		t.Fatalf("reading b.lock: %v", err)
	}
	if !bytes.Equal(dataA, dataB) {
		t.Error("the same pins in a different order should serialize identically")
	}
	if !strings.HasPrefix(string(dataA), "# Generated by shed lock.") {
		t.Errorf("lockfile should start with the generated header, got: %.60q", dataA)
	}
}

func TestSave_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := &File{Packages: []Package{
		makePackage("trunk", "x86_64-linux", KindTool),
		makePackage("gtk3", "x86_64-linux", KindLibrary),
	}}

	if err := Save(filepath.Join(t.TempDir(), DefaultName), in); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if in.Version != 0 {
		t.Errorf("Save() stamped the caller's Version = %d", in.Version)
	}
	if in.Packages[0].Name != "trunk" {
		t.Error("Save() reordered the caller's packages")
	}
}

func TestSave_RejectsInvalidEntry(t *testing.T) {
	t.Parallel()

	bad := makePackage("gtk3", "x86_64-linux", KindLibrary)
	bad.StorePath = ""

	err := Save(filepath.Join(t.TempDir(), DefaultName), &File{Packages: []Package{bad}})
	if !errors.Is(err, ErrInvalidLockfile) {
		t.Errorf("error should wrap ErrInvalidLockfile, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), DefaultName))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("a missing lockfile should match fs.ErrNotExist, got: %v", err)
	}
	if errors.Is(err, ErrInvalidLockfile) {
		t.Error("a missing lockfile is not a corrupt one")
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed toml", content: "version = [not toml\n"},
		{name: "missing version", content: "[[package]]\nname = \"gtk3\"\n"},
		{name: "newer version", content: "version = 99\n"},
		{
			name: "entry without name",
			content: `version = 1

[[package]]
kind = "library"
platform = "x86_64-linux"
store_hash = "abc"
store_path = "/nix/store/abc-gtk3"
`,
		},
		{
			name: "unknown kind",
			content: `version = 1

[[package]]
name = "gtk3"
kind = "plugin"
platform = "x86_64-linux"
store_hash = "abc"
store_path = "/nix/store/abc-gtk3"
`,
		},
		{
			name: "entry without platform",
			content: `version = 1

[[package]]
name = "gtk3"
kind = "library"
store_hash = "abc"
store_path = "/nix/store/abc-gtk3"
`,
		},
		{
			name: "entry without store hash",
			content: `version = 1

[[package]]
name = "gtk3"
kind = "library"
platform = "x86_64-linux"
store_path = "/nix/store/abc-gtk3"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), DefaultName)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing lockfile: %v", err)
			}

			_, err := Load(path)
			if !errors.Is(err, ErrInvalidLockfile) {
				t.Errorf("error should wrap ErrInvalidLockfile, got: %v", err)
			}
		})
	}
}

func TestFile_Lookup(t *testing.T) {
	t.Parallel()

	file := &File{Packages: []Package{makePackage("gtk3", "x86_64-linux", KindLibrary)}}

	if _, ok := file.Lookup("gtk3", "x86_64-linux"); !ok {
		t.Error("Lookup() should find the pinned entry")
	}
	if _, ok := file.Lookup("gtk3", "aarch64-darwin"); ok {
		t.Error("Lookup() must not match a different platform")
	}
	if _, ok := file.Lookup("webkitgtk_4_1", "x86_64-linux"); ok {
		t.Error("Lookup() must not match a different name")
	}
}

func TestFile_Upsert(t *testing.T) {
	t.Parallel()

	file := &File{Packages: []Package{makePackage("gtk3", "x86_64-linux", KindLibrary)}}

	updated := makePackage("gtk3", "x86_64-linux", KindLibrary)
	updated.StoreHash = "updatedhash"
	file.Upsert(updated)
	if len(file.Packages) != 1 {
		t.Fatalf("Upsert() of an existing key should replace, got %d entries", len(file.Packages))
	}
	if file.Packages[0].StoreHash != "updatedhash" {
		t.Errorf("StoreHash = %q, want %q", file.Packages[0].StoreHash, "updatedhash")
	}

	file.Upsert(makePackage("gtk3", "aarch64-darwin", KindLibrary))
	if len(file.Packages) != 2 {
		t.Fatalf("Upsert() of a new platform should append, got %d entries", len(file.Packages))
	}
}

func TestKind_IsValid(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindLibrary, KindTool} {
		if valid, errs := kind.IsValid(); !valid {
			t.Errorf("IsValid(%q) = false, errs: %v", kind, errs)
		}
	}

	for _, kind := range []Kind{"", "plugin", "Library"} {
		valid, errs := kind.IsValid()
		if valid {
			t.Errorf("IsValid(%q) = true, want false", kind)
			continue
		}
		if !errors.Is(errs[0], ErrInvalidKind) {
			t.Errorf("errors.Is(errs[0], ErrInvalidKind) = false for %q, got: %v", kind, errs[0])
		}
	}
}
