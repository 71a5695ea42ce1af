// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"shed-cli/internal/config"
	"shed-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "shed",
		Short: "Reproducible development environments from a binary catalog",
		Long: TitleStyle.Render("shed") + SubtitleStyle.Render(" - Reproducible development environments from a binary catalog") + `

shed provisions per-project development environments from a declarative
manifest: native libraries and command line tools are resolved against
a binary artifact catalog, realized into a content-addressed store, and
exposed to an interactive shell through search path variables.

Environments are declared in 'shedfile.cue' files using CUE format,
resolved per platform, and can be frozen with a lockfile for
reproducible entry.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a shedfile.cue in your project directory
  2. Declare platforms, libraries, and tools using CUE syntax
  3. Enter the environment with: shed enter

` + SubtitleStyle.Render("Examples:") + `
  shed enter                Provision and enter the environment
  shed resolve              Show what the manifest resolves to
  shed lock                 Write shed.lock for frozen entry
  shed init                 Create a new shedfile.cue
  shed config show          Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/shed/config.cue)")
}

// registerCommands attaches all subcommands to the root command. Split from
// Execute so tests can build a command tree around a mocked App.
func registerCommands(root *cobra.Command, app *App) {
	root.AddCommand(
		newEnterCommand(app),
		newResolveCommand(app),
		newLockCommand(app),
		newDoctorCommand(app),
		newInitCommand(),
		newConfigCommand(app),
		newServeCommand(app),
		newCompletionCommand(),
	)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}

	// go-install builds carry no ldflags but embed the module version.
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}

	return "dev (built from source)"
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:")+" "+err.Error())
		os.Exit(1)
	}
	registerCommands(rootCmd, app)

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
