// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"strings"
	"testing"

	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"
)

func TestDoctorCommand(t *testing.T) {
	// t.Chdir does not mix with t.Parallel; doctor locates the manifest
	// by walking up from the working directory.

	t.Run("fails when no manifest is found", func(t *testing.T) {
		t.Chdir(t.TempDir())

		resolver := &mockResolverService{report: sampleResolveReport()}
		app, stdout, _ := newTestApp(t, Dependencies{Resolver: resolver})

		cmd := newDoctorCommand(app)
		cmd.SetArgs([]string{})
		err := cmd.Execute()

		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("expected *ExitError, got %v", err)
		}
		out := strings.ToLower(stdout.String())
		if !strings.Contains(out, "no shedfile found") || !strings.Contains(out, "check(s) failed") {
			t.Errorf("unexpected output:\n%s", stdout.String())
		}
		if len(resolver.requests) != 0 {
			t.Error("resolution should not run when the manifest is missing")
		}
	})

	t.Run("passes with a healthy minimal manifest", func(t *testing.T) {
		if _, err := platform.Detect(); err != nil {
			t.Skipf("host platform is unsupported: %v", err)
		}
		t.Chdir(t.TempDir())

		if err := os.WriteFile(shedfile.DefaultFilename, []byte(generateShedfile("minimal")), 0o644); err != nil {
			t.Fatal(err)
		}

		resolver := &mockResolverService{report: sampleResolveReport()}
		app, stdout, _ := newTestApp(t, Dependencies{Resolver: resolver})

		cmd := newDoctorCommand(app)
		cmd.SetArgs([]string{})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("doctor failed: %v\n%s", err, stdout.String())
		}

		out := strings.ToLower(stdout.String())
		for _, want := range []string{
			"configuration loaded",
			"manifest",
			"platform declared by manifest",
			"resolved 1 libraries and 1 tools",
			"toolchain: not configured (skipped)",
			"all checks passed",
		} {
			if !strings.Contains(out, strings.ToLower(want)) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout.String())
			}
		}
		if len(resolver.requests) != 1 {
			t.Errorf("expected 1 Resolve call, got %d", len(resolver.requests))
		}
	})
}
