// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"shed-cli/internal/lockfile"

	"github.com/spf13/cobra"
)

// newLockCommand creates the `shed lock` command.
func newLockCommand(app *App) *cobra.Command {
	var (
		platformOverride string
		check            bool
	)

	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Write shed.lock from a fresh resolution",
		Long: `Resolve the nearest shedfile.cue against the catalog and record the
outcome in shed.lock next to the manifest.

A committed shed.lock makes 'shed enter --frozen' reproducible: entry
resolves from the lockfile alone and never consults the remote catalog.

With --check, no file is written. The committed lockfile is compared
against a fresh resolution; shed exits non-zero and prints the
differences when the lockfile is out of date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.Resolver.Resolve(cmd.Context(), ResolveRequest{
				Platform: platformOverride,
			})
			if err != nil {
				issueID, styledMsg := classifySessionError(err, verbose)
				renderServiceError(app.stderr, newServiceError(err, issueID, styledMsg))
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return err
			}

			fresh := report.Resolution.Lock(report.Channel)
			lockPath := filepath.Join(report.ManifestDir, lockfile.DefaultName)

			if check {
				return runLockCheck(cmd, app, lockPath, fresh)
			}

			if err := lockfile.Save(lockPath, fresh); err != nil {
				return fmt.Errorf("failed to write %s: %w", lockfile.DefaultName, err)
			}

			fmt.Fprintf(app.stdout, "%s Wrote %s (%d packages)\n",
				SuccessStyle.Render("✓"), lockPath, len(fresh.Packages))
			return nil
		},
	}

	lockCmd.Flags().StringVarP(&platformOverride, "platform", "p", "", "override the target platform (e.g. x86_64-linux)")
	lockCmd.Flags().BoolVar(&check, "check", false, "verify the committed shed.lock matches a fresh resolution")

	return lockCmd
}

// runLockCheck compares the committed lockfile against a fresh resolution and
// reports drift without writing anything.
func runLockCheck(cmd *cobra.Command, app *App, lockPath string, fresh *lockfile.File) error {
	committed, err := lockfile.Load(lockPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(app.stderr, "%s no %s found; run 'shed lock' to create one\n",
				ErrorStyle.Render("✗"), lockfile.DefaultName)
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return &ExitError{Code: 1, Err: err}
		}
		issueID, styledMsg := classifySessionError(err, verbose)
		renderServiceError(app.stderr, newServiceError(err, issueID, styledMsg))
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return err
	}

	changes := lockfile.Diff(committed, fresh)
	if len(changes) == 0 {
		fmt.Fprintf(app.stdout, "%s %s is up to date\n",
			SuccessStyle.Render("✓"), lockfile.DefaultName)
		return nil
	}

	fmt.Fprintf(app.stdout, "%s %s is out of date:\n",
		WarningStyle.Render("!"), lockfile.DefaultName)
	for _, change := range changes {
		fmt.Fprintf(app.stdout, "  %s\n", change.String())
	}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: 1, Err: fmt.Errorf("%s is out of date", lockfile.DefaultName)}
}
