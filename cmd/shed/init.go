// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"shed-cli/internal/platform"
	"shed-cli/pkg/shedfile"

	"github.com/spf13/cobra"
)

// newInitCommand creates the `shed init` command.
func newInitCommand() *cobra.Command {
	var (
		initForce    bool
		initTemplate string
	)

	initCmd := &cobra.Command{
		Use:   "init [filename]",
		Short: "Create a new shedfile.cue in the current directory",
		Long: `Create a new shedfile.cue in the current directory with an example
environment declaration.

The generated manifest declares the host platform and starter library
and tool lists to edit. The 'full' template additionally shows the
toolchain, extension, hook, and env sections.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := shedfile.DefaultFilename
			if len(args) > 0 {
				filename = args[0]
			}

			// Check if file exists
			if _, err := os.Stat(filename); err == nil && !initForce {
				return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
			}

			content := generateShedfile(initTemplate)
			if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}

			absPath, _ := filepath.Abs(filename)
			fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
			fmt.Println()
			fmt.Println(SubtitleStyle.Render("Next steps:"))
			fmt.Println("  1. Edit the shedfile to declare your libraries and tools")
			fmt.Println("  2. Run 'shed resolve' to preview what it pulls in")
			fmt.Println("  3. Run 'shed enter' to provision and enter the environment")

			return nil
		},
	}

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing shedfile")
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "default", "template to use (default, minimal, full)")

	return initCmd
}

// initPlatformID returns the host platform for generated manifests, falling
// back to x86_64-linux when detection fails (unsupported hosts can still
// generate a manifest for their deploy targets).
func initPlatformID() shedfile.PlatformID {
	plat, err := platform.Detect()
	if err != nil {
		return shedfile.PlatformID("x86_64-linux")
	}
	return shedfile.PlatformID(plat)
}

func generateShedfile(template string) string {
	host := initPlatformID()
	var sf *shedfile.Shedfile

	switch template {
	case "minimal":
		sf = &shedfile.Shedfile{
			Name: "myproject",
			Platforms: []shedfile.PlatformConfig{
				{
					Name:  host,
					Tools: []shedfile.PackageName{"ripgrep"},
				},
			},
		}

	case "full":
		// Second platform shows the multi-platform shape; keep it distinct
		// from the host so the generated manifest always validates.
		alt := shedfile.PlatformID("aarch64-darwin")
		if host == alt {
			alt = shedfile.PlatformID("x86_64-linux")
		}
		sf = &shedfile.Shedfile{
			Name:        "myproject",
			Description: "Development environment for myproject",
			Platforms: []shedfile.PlatformConfig{
				{
					Name:      host,
					Libraries: []shedfile.PackageName{"openssl", "zlib"},
					Tools:     []shedfile.PackageName{"pkg-config", "ripgrep"},
				},
				{
					Name:      alt,
					Libraries: []shedfile.PackageName{"openssl"},
					Tools:     []shedfile.PackageName{"pkg-config", "ripgrep"},
				},
			},
			Toolchain: &shedfile.ToolchainConfig{
				Channel:    "stable",
				Targets:    []shedfile.TargetName{"wasm32-unknown-unknown"},
				Components: []shedfile.ComponentName{"rust-analyzer", "clippy"},
			},
			Extensions: []shedfile.Extension{
				{
					Name:    "cargo-watch",
					Probe:   []string{"cargo", "watch", "--version"},
					Install: []string{"cargo", "install", "cargo-watch"},
				},
			},
			Hooks: &shedfile.Hooks{
				OnEnter: "echo \"myproject ready on $SHED_PLATFORM\"",
			},
			Env: &shedfile.EnvConfig{
				Files: []shedfile.EnvFilePath{".env?"},
				Vars: map[string]string{
					"RUST_BACKTRACE": "1",
				},
			},
		}

	default: // "default"
		sf = &shedfile.Shedfile{
			Name:        "myproject",
			Description: "Development environment for myproject",
			Platforms: []shedfile.PlatformConfig{
				{
					Name:      host,
					Libraries: []shedfile.PackageName{"openssl"},
					Tools:     []shedfile.PackageName{"pkg-config", "ripgrep"},
				},
			},
			Hooks: &shedfile.Hooks{
				OnEnter: "echo \"myproject ready on $SHED_PLATFORM\"",
			},
		}
	}

	return shedfile.GenerateCUE(sf)
}
