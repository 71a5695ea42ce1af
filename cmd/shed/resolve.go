// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"shed-cli/internal/resolve"

	"github.com/spf13/cobra"
)

type (
	// resolveOutput is the JSON shape emitted by `shed resolve --json`.
	resolveOutput struct {
		Name      string           `json:"name"`
		Platform  string           `json:"platform"`
		Channel   string           `json:"channel"`
		Libraries []resolveOutItem `json:"libraries"`
		Tools     []resolveOutItem `json:"tools"`
	}

	// resolveOutItem is one resolved dependency in JSON output.
	resolveOutItem struct {
		Name      string `json:"name"`
		StoreHash string `json:"store_hash"`
		StorePath string `json:"store_path"`
		OutputDir string `json:"output_dir"`
		LibDir    string `json:"lib_dir,omitempty"`
		BinDir    string `json:"bin_dir,omitempty"`
	}
)

// newResolveCommand creates the `shed resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	var (
		platformOverride string
		frozen           bool
		jsonOutput       bool
	)

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the manifest without entering the environment",
		Long: `Resolve the nearest shedfile.cue against the artifact catalog and
show what entering the environment would fetch.

Resolution follows the same ordered, fail-fast pass as 'shed enter':
libraries in declaration order, then tools in declaration order.
Nothing is downloaded and the store is not modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.Resolver.Resolve(cmd.Context(), ResolveRequest{
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

			if jsonOutput {
				return writeResolveJSON(app.stdout, report)
			}
			renderResolveReport(app.stdout, report)
			return nil
		},
	}

	resolveCmd.Flags().StringVarP(&platformOverride, "platform", "p", "", "override the target platform (e.g. x86_64-linux)")
	resolveCmd.Flags().BoolVar(&frozen, "frozen", false, "resolve strictly from the committed shed.lock")
	resolveCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of styled text")

	return resolveCmd
}

// renderResolveReport writes the styled human-readable resolution listing.
func renderResolveReport(w io.Writer, report *ResolveReport) {
	header := TitleStyle.Render(report.Manifest.Name) +
		SubtitleStyle.Render(fmt.Sprintf(" (%s, channel %s)", report.Platform, report.Channel))
	fmt.Fprintln(w, header)
	if desc := report.Manifest.Description.String(); desc != "" {
		fmt.Fprintln(w, SubtitleStyle.Render(desc))
	}
	fmt.Fprintln(w)

	renderResolvedSection(w, "Libraries", report.Resolution.Libraries)
	renderResolvedSection(w, "Tools", report.Resolution.Tools)
}

func renderResolvedSection(w io.Writer, title string, items []resolve.Resolved) {
	fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("%s (%d):", title, len(items))))
	for _, item := range items {
		line := fmt.Sprintf("  %s - %s", CmdStyle.Render(string(item.Artifact.Name)), VerboseStyle.Render(item.Artifact.StorePath))
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// writeResolveJSON writes the machine-readable report for scripting.
func writeResolveJSON(w io.Writer, report *ResolveReport) error {
	out := resolveOutput{
		Name:      report.Manifest.Name,
		Platform:  report.Platform.String(),
		Channel:   report.Channel,
		Libraries: make([]resolveOutItem, 0, len(report.Resolution.Libraries)),
		Tools:     make([]resolveOutItem, 0, len(report.Resolution.Tools)),
	}
	for _, item := range report.Resolution.Libraries {
		out.Libraries = append(out.Libraries, resolveItemJSON(item))
	}
	for _, item := range report.Resolution.Tools {
		out.Tools = append(out.Tools, resolveItemJSON(item))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func resolveItemJSON(item resolve.Resolved) resolveOutItem {
	return resolveOutItem{
		Name:      string(item.Artifact.Name),
		StoreHash: item.Artifact.StoreHash,
		StorePath: item.Artifact.StorePath,
		OutputDir: item.Artifact.OutputDir,
		LibDir:    item.LibDir,
		BinDir:    item.BinDir,
	}
}
