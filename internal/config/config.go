// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"shed-cli/internal/issue"
	"shed-cli/internal/platform"
	"shed-cli/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "shed"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix is the prefix for environment variable overrides (SHED_*).
	EnvPrefix = "shed"
)

//go:embed schema.cue
var configSchema string

// ConfigDir returns the shed configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// CacheDir returns the default artifact cache directory using
// platform-specific conventions: Windows uses %LOCALAPPDATA%, macOS uses
// ~/Library/Caches, and Linux/others use $XDG_CACHE_HOME (defaulting to
// ~/.cache). Realized store entries live under <dir>/store.
func CacheDir() (string, error) {
	var cacheDir string

	switch runtime.GOOS {
	case platform.Windows:
		cacheDir = os.Getenv("LOCALAPPDATA")
		if cacheDir == "" {
			cacheDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		cacheDir = filepath.Join(home, "Library", "Caches")
	default: // Linux and others
		cacheDir = os.Getenv("XDG_CACHE_HOME")
		if cacheDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			cacheDir = filepath.Join(home, ".cache")
		}
	}

	return filepath.Join(cacheDir, AppName), nil
}

// EffectiveCacheDir resolves the artifact cache directory for a loaded
// config: the configured cache_dir when set, the platform default otherwise.
func EffectiveCacheDir(cfg *Config) (string, error) {
	if cfg != nil && cfg.CacheDir != "" {
		return string(cfg.CacheDir), nil
	}
	return CacheDir()
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("catalog.url", defaults.Catalog.URL)
	v.SetDefault("catalog.channel", defaults.Catalog.Channel)
	v.SetDefault("catalog.overlays", defaults.Catalog.Overlays)
	v.SetDefault("catalog.timeout_seconds", defaults.Catalog.TimeoutSeconds)
	v.SetDefault("shell", defaults.Shell)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	// Environment overrides: SHED_CATALOG_URL, SHED_UI_VERBOSE, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// If a custom config file path is set via the --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		customPath := string(opts.ConfigFilePath)
		if !fileExists(customPath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(customPath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'shed config show' to see default configuration").
				Wrap(fmt.Errorf("config file not found: %s", customPath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, customPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(customPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'shed config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
		resolvedPath = customPath
	} else {
		// Get config directory
		cfgDir, err := configDirWithOverride(string(opts.ConfigDirPath))
		if err != nil {
			return nil, "", err
		}

		// Try to load CUE config file
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(cuePath).
					WithSuggestion("Check that the file contains valid CUE syntax").
					WithSuggestion("Verify the configuration values match the expected schema").
					WithSuggestion("See 'shed config --help' for configuration options").
					Wrap(err).
					BuildError()
			}
			resolvedPath = cuePath
		}
		// If no config file found, use defaults (no error)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Reject values the CUE schema cannot fully constrain (URL shape,
	// positive timeout, whitespace-only paths).
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check catalog.url is an absolute http(s) URL").
			WithSuggestion("Check catalog.timeout_seconds is positive").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: This uses manual CUE parsing instead of cueutil.ParseAndDecode because:
// 1. Config decodes to map[string]any (not a struct) for Viper integration
// 2. Uses Concrete(false) because config fields are optional
// 3. Needs to merge into Viper's config map, not return a struct
func loadCUEIntoViper(v *viper.Viper, path string) error {
	// Read CUE file
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Check file size using cueutil
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	// Parse with CUE
	ctx := cuecontext.New()

	// Compile the schema
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	// Compile the user's config file
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	// Unify with schema to validate against #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Decode to Go map
	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// EnsureCacheDir creates the artifact cache directory (and its store
// subdirectory) if it doesn't exist, and returns the cache directory path.
func EnsureCacheDir(cfg *Config) (string, error) {
	cacheDir, err := EffectiveCacheDir(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(cacheDir, "store"), 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return cacheDir, nil
}

// CreateDefaultConfig creates a default config file if it doesn't exist
func CreateDefaultConfig() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		return nil // File exists
	}

	defaults := DefaultConfig()
	cueContent := GenerateCUE(defaults)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	cueContent := GenerateCUE(cfg)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Shed Configuration File\n\n")

	if cfg.CacheDir != "" {
		sb.WriteString(fmt.Sprintf("cache_dir: %q\n\n", cfg.CacheDir))
	}

	// Catalog config
	sb.WriteString("catalog: {\n")
	sb.WriteString(fmt.Sprintf("\turl: %q\n", cfg.Catalog.URL))
	sb.WriteString(fmt.Sprintf("\tchannel: %q\n", cfg.Catalog.Channel))
	if len(cfg.Catalog.Overlays) > 0 {
		sb.WriteString("\toverlays: [\n")
		for _, overlay := range cfg.Catalog.Overlays {
			sb.WriteString(fmt.Sprintf("\t\t%q,\n", overlay))
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString(fmt.Sprintf("\ttimeout_seconds: %d\n", cfg.Catalog.TimeoutSeconds))
	sb.WriteString("}\n")

	if cfg.Shell != "" {
		sb.WriteString(fmt.Sprintf("\nshell: %q\n", cfg.Shell))
	}

	// UI config
	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	return sb.String()
}
