// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"shed-cli/internal/config"
	"shed-cli/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `shed config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shed configuration",
		Long: `Manage shed configuration.

Configuration is stored in:
  - Linux: ~/.config/shed/config.cue
  - macOS: ~/Library/Application Support/shed/config.cue
  - Windows: %APPDATA%\shed\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{})
			if err != nil {
				return err
			}

			cueContent := config.GenerateCUE(cfg)
			fmt.Print(cueContent)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{})
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	// Style definitions using shared color palette
	headerStyle := TitleStyle
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Println(headerStyle.Render("Current Configuration"))
	fmt.Println()

	// Derive config file path from the standard config directory since the provider
	// does not cache resolved paths; each call derives from the standard config directory.
	cfgDir, dirErr := config.ConfigDir()
	if dirErr == nil {
		cfgPath := cfgDir + "/config.cue"
		if fileExistsCheck(cfgPath) {
			fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), cfgPath)
		} else {
			fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
		}
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	// Show values
	if cacheDir, cacheErr := config.EffectiveCacheDir(cfg); cacheErr == nil {
		fmt.Printf("%s: %s\n", keyStyle.Render("cache_dir"), valueStyle.Render(cacheDir))
	}
	if cfg.Shell != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("shell"), valueStyle.Render(string(cfg.Shell)))
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("shell"), SubtitleStyle.Render("(use $SHELL)"))
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("catalog"))
	fmt.Printf("  url: %s\n", valueStyle.Render(string(cfg.Catalog.URL)))
	fmt.Printf("  channel: %s\n", valueStyle.Render(string(cfg.Catalog.Channel)))
	fmt.Printf("  timeout_seconds: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Catalog.TimeoutSeconds)))
	if len(cfg.Catalog.Overlays) == 0 {
		fmt.Printf("  overlays: %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		fmt.Printf("  overlays:\n")
		for _, overlay := range cfg.Catalog.Overlays {
			fmt.Printf("    - %s\n", valueStyle.Render(string(overlay)))
		}
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfig() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err = config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s/config.cue\n", SuccessStyle.Render("✓"), cfgDir)

	// Also create the artifact store directory
	if cacheDir, cacheErr := config.EnsureCacheDir(config.Get()); cacheErr != nil {
		slog.Warn("failed to create cache directory", "error", cacheErr)
	} else {
		fmt.Printf("%s Created artifact store at %s/store\n", SuccessStyle.Render("✓"), cacheDir)
	}

	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s/config.cue\n", cfgDir)

	if cacheDir, cacheErr := config.EffectiveCacheDir(config.Get()); cacheErr == nil {
		fmt.Printf("Cache directory: %s\n", cacheDir)
	}

	return nil
}

// fileExistsCheck reports whether path names an existing file.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
