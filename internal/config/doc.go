// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/shed/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/shed/config.cue on macOS, %APPDATA%\shed\config.cue
// on Windows). The package provides type-safe configuration access and covers the
// artifact cache location, catalog endpoints and overlays, shell selection, and UI
// settings. Environment variables prefixed SHED_ override file values.
//
// Configuration validation is performed against a CUE schema (schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
