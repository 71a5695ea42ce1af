// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"shed-cli/internal/config"
	"shed-cli/internal/session"
	"shed-cli/internal/sshserver"

	"github.com/spf13/cobra"
)

// newServeCommand creates the `shed serve` command.
func newServeCommand(app *App) *cobra.Command {
	var (
		host             string
		port             int
		platformOverride string
		frozen           bool
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Provision the environment and share it over loopback SSH",
		Long: `Provision the environment exactly like 'shed enter', then serve it over
a token-authenticated SSH endpoint instead of handing over a local
shell.

Editors, terminal multiplexers, and teammates on the same machine
connect with the printed one-time credentials and get shells inside
the provisioned environment. The server runs until interrupted; its
tokens die with it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pe, err := app.Sessions.Provision(ctx, session.Options{
				Platform: platformOverride,
				Frozen:   frozen,
			})
			if err != nil {
				issueID, styledMsg := classifySessionError(err, verbose)
				renderServiceError(app.stderr, newServiceError(err, issueID, styledMsg))
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return err
			}

			srv := sshserver.New(sshserver.Config{
				Host:         sshserver.HostAddress(host),
				Port:         sshserver.ListenPort(port),
				DefaultShell: config.ShellPath(pe.Shell),
				Env:          pe.Env,
				Dir:          pe.ManifestDir,
			})

			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("failed to start SSH server: %w", err)
			}

			// GetConnectionInfo mints the session token itself.
			info, err := srv.GetConnectionInfo(pe.ID)
			if err != nil {
				_ = srv.Stop()
				return fmt.Errorf("failed to generate session credentials: %w", err)
			}

			printConnectionInfo(app, pe, info)

			// Block until interrupted or the listener dies on its own.
			waitErr := make(chan error, 1)
			go func() { waitErr <- srv.Wait() }()

			select {
			case <-ctx.Done():
				srv.RevokeTokensForSession(pe.ID)
				if err := srv.Stop(); err != nil {
					return fmt.Errorf("failed to stop SSH server: %w", err)
				}
				return nil
			case err := <-waitErr:
				srv.RevokeTokensForSession(pe.ID)
				if err != nil {
					return fmt.Errorf("SSH server terminated: %w", err)
				}
				return nil
			}
		},
	}

	serveCmd.Flags().StringVar(&host, "host", "127.0.0.1", "address to bind the SSH listener to")
	serveCmd.Flags().IntVar(&port, "port", 0, "port to listen on (0 picks a free port)")
	serveCmd.Flags().StringVarP(&platformOverride, "platform", "p", "", "override the target platform (e.g. x86_64-linux)")
	serveCmd.Flags().BoolVar(&frozen, "frozen", false, "resolve strictly from the committed shed.lock")

	return serveCmd
}

// printConnectionInfo renders the credentials block clients need.
func printConnectionInfo(app *App, pe *session.Environment, info *sshserver.ConnectionInfo) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Environment served over SSH"))
	fmt.Fprintln(app.stdout, SubtitleStyle.Render(fmt.Sprintf("session %s on %s", pe.ID, pe.Platform)))
	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "  %s %s\n", CmdStyle.Render("Host:"), info.Host)
	fmt.Fprintf(app.stdout, "  %s %d\n", CmdStyle.Render("Port:"), info.Port)
	fmt.Fprintf(app.stdout, "  %s %s\n", CmdStyle.Render("User:"), info.User)
	fmt.Fprintf(app.stdout, "  %s %s\n", CmdStyle.Render("Token:"), info.Token)
	fmt.Fprintf(app.stdout, "  %s %s\n", CmdStyle.Render("Expires:"), info.ExpireAt.Format("15:04:05 MST"))
	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Connect with:"))
	fmt.Fprintf(app.stdout, "  ssh -p %d %s@%s\n", info.Port, info.User, info.Host)
	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, VerboseStyle.Render("Press Ctrl+C to stop serving."))
}
