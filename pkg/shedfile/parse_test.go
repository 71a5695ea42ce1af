// SPDX-License-Identifier: MPL-2.0

package shedfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullManifest = `
name: "scriptdeck"
description: "Desktop app development shell"

platforms: [
	{
		name: "x86_64-linux"
		libraries: [
			"webkitgtk_4_1",
			"gtk3",
			"openssl",
		]
		tools: [
			"pkg-config",
			"nodejs",
		]
	},
	{
		name: "aarch64-darwin"
		tools: ["nodejs"]
	},
]

toolchain: {
	channel: "stable"
	targets: ["wasm32-unknown-unknown"]
	components: ["rust-analyzer"]
}

extensions: [
	{
		name: "tauri-cli"
		probe: ["cargo", "tauri", "--help"]
		install: ["cargo", "install", "tauri-cli"]
	},
]

hooks: on_enter: "echo ready"

env: {
	files: [".env?"]
	vars: {
		RUST_BACKTRACE: "1"
	}
}
`

func TestParseBytes_FullManifest(t *testing.T) {
	t.Parallel()

	sf, err := ParseBytes([]byte(fullManifest), "shedfile.cue")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}

	if sf.Name != "scriptdeck" {
		t.Errorf("Name = %q, want %q", sf.Name, "scriptdeck")
	}
	if sf.Description != "Desktop app development shell" {
		t.Errorf("Description = %q, want %q", sf.Description, "Desktop app development shell")
	}
	if sf.FilePath != "shedfile.cue" {
		t.Errorf("FilePath = %q, want %q", sf.FilePath, "shedfile.cue")
	}

	if len(sf.Platforms) != 2 {
		t.Fatalf("len(Platforms) = %d, want 2", len(sf.Platforms))
	}
	linux := sf.Platforms[0]
	if linux.Name != "x86_64-linux" {
		t.Errorf("Platforms[0].Name = %q, want %q", linux.Name, "x86_64-linux")
	}
	wantLibs := []PackageName{"webkitgtk_4_1", "gtk3", "openssl"}
	if len(linux.Libraries) != len(wantLibs) {
		t.Fatalf("len(Libraries) = %d, want %d", len(linux.Libraries), len(wantLibs))
	}
	for i, lib := range wantLibs {
		if linux.Libraries[i] != lib {
			t.Errorf("Libraries[%d] = %q, want %q (declaration order must be preserved)", i, linux.Libraries[i], lib)
		}
	}
	if len(linux.Tools) != 2 || linux.Tools[0] != "pkg-config" || linux.Tools[1] != "nodejs" {
		t.Errorf("Tools = %v, want [pkg-config nodejs]", linux.Tools)
	}

	if sf.Toolchain == nil {
		t.Fatal("Toolchain = nil, want populated")
	}
	if sf.Toolchain.Channel != "stable" {
		t.Errorf("Toolchain.Channel = %q, want %q", sf.Toolchain.Channel, "stable")
	}
	if len(sf.Toolchain.Targets) != 1 || sf.Toolchain.Targets[0] != "wasm32-unknown-unknown" {
		t.Errorf("Toolchain.Targets = %v, want [wasm32-unknown-unknown]", sf.Toolchain.Targets)
	}
	if len(sf.Toolchain.Components) != 1 || sf.Toolchain.Components[0] != "rust-analyzer" {
		t.Errorf("Toolchain.Components = %v, want [rust-analyzer]", sf.Toolchain.Components)
	}

	if len(sf.Extensions) != 1 {
		t.Fatalf("len(Extensions) = %d, want 1", len(sf.Extensions))
	}
	ext := sf.Extensions[0]
	if ext.Name != "tauri-cli" {
		t.Errorf("Extensions[0].Name = %q, want %q", ext.Name, "tauri-cli")
	}
	if len(ext.Probe) != 3 || ext.Probe[0] != "cargo" || ext.Probe[2] != "--help" {
		t.Errorf("Extensions[0].Probe = %v, want [cargo tauri --help]", ext.Probe)
	}
	if len(ext.Install) != 3 || ext.Install[2] != "tauri-cli" {
		t.Errorf("Extensions[0].Install = %v, want [cargo install tauri-cli]", ext.Install)
	}

	if sf.Hooks == nil || sf.Hooks.OnEnter != "echo ready" {
		t.Errorf("Hooks.OnEnter missing or wrong: %+v", sf.Hooks)
	}

	if sf.Env == nil {
		t.Fatal("Env = nil, want populated")
	}
	if len(sf.Env.Files) != 1 || sf.Env.Files[0] != ".env?" {
		t.Errorf("Env.Files = %v, want [.env?]", sf.Env.Files)
	}
	if sf.Env.Vars["RUST_BACKTRACE"] != "1" {
		t.Errorf("Env.Vars[RUST_BACKTRACE] = %q, want %q", sf.Env.Vars["RUST_BACKTRACE"], "1")
	}
}

func TestParseBytes_MinimalManifest(t *testing.T) {
	t.Parallel()

	content := `
name: "tiny"
platforms: [{name: "x86_64-linux", tools: ["ripgrep"]}]
`
	sf, err := ParseBytes([]byte(content), "shedfile.cue")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}

	if sf.Name != "tiny" {
		t.Errorf("Name = %q, want %q", sf.Name, "tiny")
	}
	if sf.Toolchain != nil {
		t.Errorf("Toolchain = %+v, want nil for manifest without toolchain block", sf.Toolchain)
	}
	if len(sf.Extensions) != 0 {
		t.Errorf("Extensions = %v, want empty", sf.Extensions)
	}
	if sf.Hooks != nil {
		t.Errorf("Hooks = %+v, want nil", sf.Hooks)
	}
}

// TestParseBytes_RejectsUnknownField verifies the schema is closed: fields
// outside the manifest surface are a parse error, not silently ignored.
func TestParseBytes_RejectsUnknownField(t *testing.T) {
	t.Parallel()

	content := `
name: "typo"
platforms: [{name: "x86_64-linux"}]
tolchain: {channel: "stable"}
`
	_, err := ParseBytes([]byte(content), "shedfile.cue")
	if err == nil {
		t.Fatal("ParseBytes() should reject unknown top-level field")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Errorf("error should mention 'not allowed', got: %v", err)
	}
}

func TestParseBytes_RejectsMalformedPlatformID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
	}{
		{"uppercase", "X86_64-Linux"},
		{"missing os half", "x86_64"},
		{"spaces", "x86_64 linux"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			content := "name: \"bad\"\nplatforms: [{name: \"" + tt.id + "\"}]\n"
			if _, err := ParseBytes([]byte(content), "shedfile.cue"); err == nil {
				t.Errorf("ParseBytes() should reject platform id %q", tt.id)
			}
		})
	}
}

func TestParseBytes_RejectsEmptyPlatformList(t *testing.T) {
	t.Parallel()

	content := `
name: "empty"
platforms: []
`
	if _, err := ParseBytes([]byte(content), "shedfile.cue"); err == nil {
		t.Fatal("ParseBytes() should reject a manifest with no platforms")
	}
}

func TestParseBytes_RejectsExtensionWithoutProbe(t *testing.T) {
	t.Parallel()

	content := `
name: "noprobe"
platforms: [{name: "x86_64-linux"}]
extensions: [{name: "tauri-cli", install: ["cargo", "install", "tauri-cli"]}]
`
	if _, err := ParseBytes([]byte(content), "shedfile.cue"); err == nil {
		t.Fatal("ParseBytes() should reject an extension without a probe argv")
	}
}

func TestParseBytes_RejectsDuplicatePlatform(t *testing.T) {
	t.Parallel()

	content := `
name: "dupe"
platforms: [
	{name: "x86_64-linux", tools: ["git"]},
	{name: "x86_64-linux", tools: ["curl"]},
]
`
	_, err := ParseBytes([]byte(content), "shedfile.cue")
	if err == nil {
		t.Fatal("ParseBytes() should reject duplicate platform declarations")
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error should be ValidationErrors, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "duplicate platform") {
		t.Errorf("error should mention 'duplicate platform', got: %v", err)
	}
}

func TestParse_ReadsFromDisk(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, DefaultFilename)
	if err := os.WriteFile(path, []byte(fullManifest), 0o644); err != nil {
		t.Fatalf("failed to write shedfile: %v", err)
	}

	sf, err := Parse(FilesystemPath(path))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if sf.Name != "scriptdeck" {
		t.Errorf("Name = %q, want %q", sf.Name, "scriptdeck")
	}
	if string(sf.FilePath) != path {
		t.Errorf("FilePath = %q, want %q", sf.FilePath, path)
	}
}

func TestParse_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Parse(FilesystemPath(filepath.Join(t.TempDir(), "nope.cue")))
	if err == nil {
		t.Fatal("Parse() should fail for a missing file")
	}
}

func TestFind_WalksUpToAncestor(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, DefaultFilename)
	if err := os.WriteFile(path, []byte(fullManifest), 0o644); err != nil {
		t.Fatalf("failed to write shedfile: %v", err)
	}
	nested := filepath.Join(tmpDir, "src", "app")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}

	found, err := Find(nested)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if string(found) != path {
		t.Errorf("Find() = %q, want %q", found, path)
	}
}

func TestFind_NotFound(t *testing.T) {
	t.Parallel()

	_, err := Find(t.TempDir())
	if err == nil {
		t.Fatal("Find() should fail when no shedfile exists")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false, got: %v", err)
	}
}

func TestLoad_FindsAndParses(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, DefaultFilename), []byte(fullManifest), 0o644); err != nil {
		t.Fatalf("failed to write shedfile: %v", err)
	}
	nested := filepath.Join(tmpDir, "deep", "deeper")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}

	sf, err := Load(nested)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if sf.Name != "scriptdeck" {
		t.Errorf("Name = %q, want %q", sf.Name, "scriptdeck")
	}
}
