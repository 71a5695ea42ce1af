// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"testing"

	"shed-cli/internal/bootstrap"
	"shed-cli/internal/catalog"
	"shed-cli/internal/issue"
	"shed-cli/internal/lockfile"
	"shed-cli/internal/platform"
	"shed-cli/internal/resolve"
	"shed-cli/pkg/cueutil"
	"shed-cli/pkg/shedfile"
)

func TestClassifySessionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		verbose     bool
		wantIssueID issue.Id
		wantInStyle []string
	}{
		{
			name:        "missing manifest maps to manifest issue",
			err:         fmt.Errorf("%w in /tmp or any parent directory", shedfile.ErrNotFound),
			wantIssueID: issue.ManifestNotFoundId,
			wantInStyle: []string{"Error:", "no shedfile found"},
		},
		{
			name: "manifest validation errors map to parse issue",
			err: shedfile.ValidationErrors{
				{Field: "platforms", Message: "at least one platform is required"},
			},
			wantIssueID: issue.ManifestParseErrorId,
			wantInStyle: []string{"platform"},
		},
		{
			name:        "CUE validation error maps to parse issue",
			err:         &cueutil.ValidationError{FilePath: "shedfile.cue", Message: "expected string"},
			wantIssueID: issue.ManifestParseErrorId,
			wantInStyle: []string{"shedfile.cue"},
		},
		{
			name:        "unsupported platform maps to platform issue",
			err:         fmt.Errorf("%w: %q", platform.ErrUnsupportedPlatform, "sparc-solaris"),
			wantIssueID: issue.PlatformUnsupportedId,
			wantInStyle: []string{"sparc-solaris"},
		},
		{
			name: "undeclared platform maps to declaration issue",
			err: &resolve.PlatformNotDeclaredError{
				Platform: platform.PlatformX8664Linux,
				Declared: []shedfile.PlatformID{"aarch64-darwin"},
			},
			wantIssueID: issue.PlatformNotDeclaredId,
			wantInStyle: []string{"not declared"},
		},
		{
			name:        "unresolved package maps to package issue",
			err:         fmt.Errorf("library %q: %w", "webkitgtk", catalog.ErrUnresolvedPackage),
			wantIssueID: issue.PackageUnresolvedId,
			wantInStyle: []string{"webkitgtk"},
		},
		{
			name:        "catalog unavailable maps to catalog issue",
			err:         fmt.Errorf("resolver: %w", catalog.ErrCatalogUnavailable),
			wantIssueID: issue.CatalogUnavailableId,
			wantInStyle: []string{"catalog unavailable"},
		},
		{
			name:        "malformed narinfo maps to catalog issue",
			err:         fmt.Errorf("entry for openssl: %w", catalog.ErrMalformedNarinfo),
			wantIssueID: issue.CatalogUnavailableId,
			wantInStyle: []string{"narinfo"},
		},
		{
			name:        "invalid store maps to store issue",
			err:         fmt.Errorf("opening store: %w", catalog.ErrInvalidStore),
			wantIssueID: issue.StoreCorruptedId,
			wantInStyle: []string{"invalid store"},
		},
		{
			name: "toolchain bootstrap action maps to toolchain issue",
			err: fmt.Errorf("bootstrap: %w", &bootstrap.ActionError{
				Action: "toolchain bootstrap",
				Err:    errors.New("toolchain manager is not available on PATH"),
			}),
			wantIssueID: issue.ToolchainNotFoundId,
			wantInStyle: []string{"not available on PATH"},
		},
		{
			name: "extension action maps to extension issue",
			err: fmt.Errorf("bootstrap: %w", &bootstrap.ActionError{
				Action: "ensuring extension tauri-cli",
				Err:    errors.New("install failed"),
			}),
			wantIssueID: issue.ExtensionInstallFailedId,
			wantInStyle: []string{"tauri-cli"},
		},
		{
			name: "other bootstrap action maps to generic bootstrap issue",
			err: fmt.Errorf("bootstrap: %w", &bootstrap.ActionError{
				Action: "registering target wasm32-unknown-unknown",
				Err:    errors.New("exit status 1"),
			}),
			wantIssueID: issue.BootstrapFailedId,
			wantInStyle: []string{"wasm32"},
		},
		{
			name: "extension action wrapping exec sentinel stays an extension issue",
			err: fmt.Errorf("bootstrap: %w", &bootstrap.ActionError{
				Action: "ensuring extension cargo-watch",
				Err:    fmt.Errorf("run install: %w", exec.ErrNotFound),
			}),
			wantIssueID: issue.ExtensionInstallFailedId,
			wantInStyle: []string{"cargo-watch"},
		},
		{
			name:        "invalid lockfile maps to lockfile issue",
			err:         fmt.Errorf("shed.lock: %w", lockfile.ErrInvalidLockfile),
			wantIssueID: issue.LockfileInvalidId,
			wantInStyle: []string{"invalid lockfile"},
		},
		{
			name:        "frozen entry without lockfile maps to frozen issue",
			err:         fmt.Errorf("frozen entry needs %s: %w", lockfile.DefaultName, fs.ErrNotExist),
			wantIssueID: issue.FrozenWithoutLockId,
			wantInStyle: []string{"shed.lock"},
		},
		{
			name:        "missing shell maps to shell issue",
			err:         fmt.Errorf("start shell: %w", exec.ErrNotFound),
			wantIssueID: issue.ShellNotFoundId,
			wantInStyle: []string{"executable file not found"},
		},
		{
			name:        "permission denied maps to permission issue",
			err:         fmt.Errorf("realize artifact: %w", os.ErrPermission),
			wantIssueID: issue.PermissionDeniedId,
			wantInStyle: []string{"permission denied"},
		},
		{
			name:        "hook failure maps to hook issue",
			err:         fmt.Errorf("on_enter hook: exit status %d", 1),
			wantIssueID: issue.HookFailedId,
			wantInStyle: []string{"on_enter hook"},
		},
		{
			name: "config load actionable error maps to config issue",
			err: issue.NewErrorContext().
				WithOperation("load configuration").
				Wrap(errors.New("bad CUE syntax")).
				BuildError(),
			wantIssueID: issue.ConfigLoadFailedId,
			wantInStyle: []string{"load configuration"},
		},
		{
			name:        "unknown error has no catalog entry",
			err:         errors.New("unexpected boom"),
			wantIssueID: 0,
			wantInStyle: []string{"unexpected boom"},
		},
		{
			name: "verbose actionable error includes chain",
			err: issue.NewErrorContext().
				WithOperation("load configuration").
				Wrap(errors.New("bad CUE syntax")).
				BuildError(),
			verbose:     true,
			wantIssueID: issue.ConfigLoadFailedId,
			wantInStyle: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotIssueID, styled := classifySessionError(tt.err, tt.verbose)
			if gotIssueID != tt.wantIssueID {
				t.Fatalf("classifySessionError() issue ID = %v, want %v", gotIssueID, tt.wantIssueID)
			}

			for _, token := range tt.wantInStyle {
				if !strings.Contains(strings.ToLower(styled), strings.ToLower(token)) {
					t.Fatalf("styled message %q does not contain token %q", styled, token)
				}
			}
		})
	}
}
