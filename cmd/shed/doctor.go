// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"shed-cli/internal/bootstrap"
	"shed-cli/internal/runner"
	"shed-cli/pkg/shedfile"

	"github.com/spf13/cobra"
)

// newDoctorCommand creates the `shed doctor` command.
func newDoctorCommand(app *App) *cobra.Command {
	var platformOverride string

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment setup without changing anything",
		Long: `Run read-only checks over configuration, manifest, platform, catalog
resolution, toolchain manager, and extensions.

Checks never install or modify anything. Extension probes run with the
current environment; a failing probe is reported as something
'shed enter' would install, not fixed on the spot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := runDoctorChecks(cmd.Context(), app, platformOverride)
			if failed > 0 {
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return &ExitError{Code: 1, Err: fmt.Errorf("%d check(s) failed", failed)}
			}
			return nil
		},
	}

	doctorCmd.Flags().StringVarP(&platformOverride, "platform", "p", "", "override the target platform (e.g. x86_64-linux)")

	return doctorCmd
}

// runDoctorChecks runs every diagnostic and returns the number of failures.
// A missing extension counts as a warning, not a failure, because entry
// would install it.
func runDoctorChecks(ctx context.Context, app *App, platformOverride string) int {
	out := app.stdout
	failed := 0

	fmt.Fprintln(out, TitleStyle.Render("shed doctor"))
	fmt.Fprintln(out)

	if _, err := loadConfigForCLI(ctx, app.Config); err != nil {
		failed++
		fmt.Fprintf(out, "%s configuration: %s\n", ErrorStyle.Render("✗"), formatErrorForDisplay(err, verbose))
	} else {
		fmt.Fprintf(out, "%s configuration loaded\n", SuccessStyle.Render("✓"))
	}

	plat, err := resolvePlatformOverride(platformOverride)
	if err != nil {
		failed++
		fmt.Fprintf(out, "%s platform: %v\n", ErrorStyle.Render("✗"), err)
	} else {
		fmt.Fprintf(out, "%s platform %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(plat.String()))
	}

	sf, err := shedfile.Load("")
	if err != nil {
		failed++
		fmt.Fprintf(out, "%s manifest: %s\n", ErrorStyle.Render("✗"), formatErrorForDisplay(err, verbose))
		fmt.Fprintln(out)
		fmt.Fprintln(out, ErrorStyle.Render(fmt.Sprintf("%d check(s) failed", failed)))
		return failed
	}
	fmt.Fprintf(out, "%s manifest %s (%s)\n",
		SuccessStyle.Render("✓"), VerboseStyle.Render(sf.FilePath.String()), sf.Name)

	if plat != "" {
		if _, ok := sf.PlatformFor(shedfile.PlatformID(plat)); ok {
			fmt.Fprintf(out, "%s platform declared by manifest\n", SuccessStyle.Render("✓"))
		} else {
			failed++
			fmt.Fprintf(out, "%s platform %s is not declared by the manifest\n", ErrorStyle.Render("✗"), plat)
		}
	}

	report, err := app.Resolver.Resolve(ctx, ResolveRequest{Platform: platformOverride})
	if err != nil {
		failed++
		fmt.Fprintf(out, "%s resolution: %s\n", ErrorStyle.Render("✗"), formatErrorForDisplay(err, verbose))
	} else {
		fmt.Fprintf(out, "%s resolved %d libraries and %d tools from channel %s\n",
			SuccessStyle.Render("✓"),
			len(report.Resolution.Libraries), len(report.Resolution.Tools), report.Channel)
	}

	if sf.Toolchain == nil {
		fmt.Fprintf(out, "%s toolchain: not configured (skipped)\n", SubtitleStyle.Render("-"))
	} else if bootstrap.NewRustupToolchain(runner.NewExecRunner()).Available() {
		fmt.Fprintf(out, "%s toolchain manager available\n", SuccessStyle.Render("✓"))
	} else {
		failed++
		fmt.Fprintf(out, "%s toolchain manager not found on PATH\n", ErrorStyle.Render("✗"))
	}

	probeRunner := runner.NewExecRunner()
	for _, ext := range sf.Extensions {
		res := probeRunner.Run(ctx, runner.Spec{
			Argv:   ext.Probe,
			Stdout: io.Discard,
			Stderr: io.Discard,
		})
		if res.Err == nil && res.ExitCode.IsSuccess() {
			fmt.Fprintf(out, "%s extension %s present\n",
				SuccessStyle.Render("✓"), CmdStyle.Render(string(ext.Name)))
		} else {
			fmt.Fprintf(out, "%s extension %s missing ('shed enter' would install it)\n",
				WarningStyle.Render("!"), CmdStyle.Render(string(ext.Name)))
		}
	}

	fmt.Fprintln(out)
	if failed == 0 {
		fmt.Fprintln(out, SuccessStyle.Render("All checks passed"))
	} else {
		fmt.Fprintln(out, ErrorStyle.Render(fmt.Sprintf("%d check(s) failed", failed)))
	}
	return failed
}
