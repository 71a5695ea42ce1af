// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"

	"shed-cli/pkg/types"
)

// configDirOverride allows tests to override the config directory.
// This is necessary because os.UserHomeDir() doesn't reliably respect
// the HOME environment variable on all platforms (e.g., macOS in CI).
var configDirOverride string

// configFilePathOverride forces Load to read a specific config file.
// Set from the CLI --config flag before the first Load call.
var configFilePathOverride string

var (
	cachedConfig *Config
	cachedMu     sync.RWMutex
)

// Reset clears overrides and the cached configuration.
// Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	configFilePathOverride = ""
	cachedMu.Lock()
	cachedConfig = nil
	cachedMu.Unlock()
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetConfigFilePathOverride makes Load read the given file instead of the
// platform default location. A missing or malformed file is then an error
// rather than a silent fall-through to defaults.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// Load loads the configuration from the default locations and caches the
// result for subsequent Get calls.
func Load() (*Config, error) {
	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: types.FilesystemPath(configFilePathOverride),
	})
	if err != nil {
		return nil, err
	}

	cachedMu.Lock()
	cachedConfig = cfg
	cachedMu.Unlock()

	return cfg, nil
}

// Get returns the cached configuration, loading it on first use.
// When loading fails, Get returns the defaults so callers always get a
// usable config; commands that must surface loading errors use Load.
func Get() *Config {
	cachedMu.RLock()
	cfg := cachedConfig
	cachedMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	loaded, err := Load()
	if err != nil {
		return DefaultConfig()
	}
	return loaded
}
