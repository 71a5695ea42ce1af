// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"shed-cli/internal/session"
	"shed-cli/pkg/types"

	"github.com/spf13/cobra"
)

// newEnterCommand creates the `shed enter` command.
func newEnterCommand(app *App) *cobra.Command {
	var (
		platformOverride string
		frozen           bool
		command          string
	)

	enterCmd := &cobra.Command{
		Use:   "enter",
		Short: "Provision the environment and enter an interactive shell",
		Long: `Provision the environment declared by the nearest shedfile.cue and
hand over an interactive shell inside it.

Provisioning resolves the manifest's libraries and tools against the
artifact catalog, realizes them into the local store, composes the
search path environment, runs the toolchain and extension bootstrap,
and executes the on_enter hook. The first failure aborts entry.

The shell inherits the composed environment. Exiting the shell ends
the session; shed exits with the shell's exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := session.Options{
				Platform: platformOverride,
				Frozen:   frozen,
				Command:  command,
			}

			err := app.Sessions.Enter(cmd.Context(), opts)
			if err == nil {
				return nil
			}

			if code, ok := session.IsExitError(err); ok {
				// The handed-over shell exited non-zero. Propagate the code
				// without extra rendering; the shell already said its piece.
				if verbose {
					fmt.Fprintf(app.stderr, "%s Session exited with code %d\n", WarningStyle.Render("!"), int(code))
				}
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return &ExitError{Code: types.ExitCode(code)}
			}

			issueID, styledMsg := classifySessionError(err, verbose)
			renderServiceError(app.stderr, newServiceError(err, issueID, styledMsg))
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return err
		},
	}

	enterCmd.Flags().StringVarP(&platformOverride, "platform", "p", "", "override the target platform (e.g. x86_64-linux)")
	enterCmd.Flags().BoolVar(&frozen, "frozen", false, "resolve strictly from the committed shed.lock")
	enterCmd.Flags().StringVarP(&command, "command", "c", "", "run a single command in the environment instead of an interactive shell")

	return enterCmd
}
