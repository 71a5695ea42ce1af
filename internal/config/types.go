// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultCatalogURL is the public binary cache artifacts are fetched from.
	DefaultCatalogURL CatalogURL = "https://cache.nixos.org"
	// DefaultCatalogChannel is the catalog snapshot consulted by resolution URLs.
	DefaultCatalogChannel CatalogChannel = "trunk-combined"
	// DefaultCatalogTimeoutSeconds bounds each catalog HTTP request.
	DefaultCatalogTimeoutSeconds = 60
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidShellPath is returned when a ShellPath value is whitespace-only.
	ErrInvalidShellPath = errors.New("invalid shell path")
	// ErrInvalidCatalogURL is returned when a CatalogURL is empty or not http(s).
	ErrInvalidCatalogURL = errors.New("invalid catalog URL")
	// ErrInvalidCatalogChannel is returned when a CatalogChannel is empty or malformed.
	ErrInvalidCatalogChannel = errors.New("invalid catalog channel")
	// ErrInvalidOverlayPath is the sentinel error wrapped by InvalidOverlayPathError.
	ErrInvalidOverlayPath = errors.New("invalid overlay path")
	// ErrInvalidCatalogTimeout is returned when catalog.timeout_seconds is not positive.
	ErrInvalidCatalogTimeout = errors.New("invalid catalog timeout")
	// ErrInvalidCatalogConfig is the sentinel error wrapped by InvalidCatalogConfigError.
	ErrInvalidCatalogConfig = errors.New("invalid catalog config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// catalogChannelPattern matches snapshot/jobset identifiers ("trunk-combined").
	catalogChannelPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// CacheDirPath represents a filesystem path to the artifact cache directory.
	// The zero value ("") is valid and means "use default cache directory".
	// Non-zero values must not be whitespace-only.
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// ShellPath represents a filesystem path to the interactive shell handed
	// control at the end of `shed enter`. The zero value ("") is valid and
	// means "use $SHELL, falling back to /bin/bash then /bin/sh".
	// Non-zero values must not be whitespace-only.
	ShellPath string

	// InvalidShellPathError is returned when a ShellPath value is non-empty
	// but whitespace-only.
	InvalidShellPathError struct {
		Value ShellPath
	}

	// CatalogURL is the base URL of the binary cache serving artifact
	// metadata and archives. Must be an absolute http(s) URL.
	CatalogURL string

	// InvalidCatalogURLError is returned when a CatalogURL value is empty,
	// unparsable, or not http(s).
	InvalidCatalogURLError struct {
		Value CatalogURL
	}

	// CatalogChannel names the catalog snapshot used when building
	// resolution URLs ("trunk-combined").
	CatalogChannel string

	// InvalidCatalogChannelError is returned when a CatalogChannel value is
	// empty or contains characters outside the allowed set.
	InvalidCatalogChannelError struct {
		Value CatalogChannel
	}

	// OverlayPath represents a filesystem path to a YAML overlay file
	// consulted before the remote catalog. A valid path must be non-empty
	// and not whitespace-only.
	OverlayPath string

	// InvalidOverlayPathError is returned when an OverlayPath value is
	// empty or whitespace-only. It wraps ErrInvalidOverlayPath for errors.Is().
	InvalidOverlayPathError struct {
		Value OverlayPath
	}

	// InvalidCatalogTimeoutError is returned when catalog.timeout_seconds is
	// zero or negative. It wraps ErrInvalidCatalogTimeout for errors.Is().
	InvalidCatalogTimeoutError struct {
		Value int
	}

	// InvalidCatalogConfigError is returned when a CatalogConfig has invalid fields.
	// It wraps ErrInvalidCatalogConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidCatalogConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// CacheDir overrides where realized artifacts are stored
		CacheDir CacheDirPath `json:"cache_dir" mapstructure:"cache_dir"`
		// Catalog configures artifact resolution endpoints
		Catalog CatalogConfig `json:"catalog" mapstructure:"catalog"`
		// Shell overrides the interactive shell handed over by `shed enter`
		Shell ShellPath `json:"shell" mapstructure:"shell"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// CatalogConfig configures how package names are resolved to artifacts.
	CatalogConfig struct {
		// URL is the binary cache base URL
		URL CatalogURL `json:"url" mapstructure:"url"`
		// Channel is the catalog snapshot used in resolution URLs
		Channel CatalogChannel `json:"channel" mapstructure:"channel"`
		// Overlays are YAML overlay files consulted before the remote catalog
		Overlays []OverlayPath `json:"overlays" mapstructure:"overlays"`
		// TimeoutSeconds bounds each catalog HTTP request
		TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// IsValid returns whether the CacheDirPath is valid.
// The zero value ("") is valid (means "use default cache directory").
// Non-zero values must not be whitespace-only.
func (p CacheDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCacheDirPathError.
func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheDirPath for errors.Is() compatibility.
func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// String returns the string representation of the ShellPath.
func (p ShellPath) String() string { return string(p) }

// IsValid returns whether the ShellPath is valid.
// The zero value ("") is valid (means "auto-detect via $SHELL").
// Non-zero values must not be whitespace-only.
func (p ShellPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidShellPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidShellPathError.
func (e *InvalidShellPathError) Error() string {
	return fmt.Sprintf("invalid shell path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidShellPath for errors.Is() compatibility.
func (e *InvalidShellPathError) Unwrap() error { return ErrInvalidShellPath }

// String returns the string representation of the CatalogURL.
func (u CatalogURL) String() string { return string(u) }

// IsValid returns whether the CatalogURL is an absolute http(s) URL,
// and a list of validation errors if it is not.
func (u CatalogURL) IsValid() (bool, []error) {
	parsed, err := url.Parse(string(u))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return false, []error{&InvalidCatalogURLError{Value: u}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCatalogURLError.
func (e *InvalidCatalogURLError) Error() string {
	return fmt.Sprintf("invalid catalog URL %q: must be an absolute http(s) URL", e.Value)
}

// Unwrap returns ErrInvalidCatalogURL for errors.Is() compatibility.
func (e *InvalidCatalogURLError) Unwrap() error { return ErrInvalidCatalogURL }

// String returns the string representation of the CatalogChannel.
func (c CatalogChannel) String() string { return string(c) }

// IsValid returns whether the CatalogChannel is well-formed,
// and a list of validation errors if it is not.
func (c CatalogChannel) IsValid() (bool, []error) {
	if !catalogChannelPattern.MatchString(string(c)) {
		return false, []error{&InvalidCatalogChannelError{Value: c}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCatalogChannelError.
func (e *InvalidCatalogChannelError) Error() string {
	return fmt.Sprintf("invalid catalog channel %q: must match %s", e.Value, catalogChannelPattern)
}

// Unwrap returns ErrInvalidCatalogChannel for errors.Is() compatibility.
func (e *InvalidCatalogChannelError) Unwrap() error { return ErrInvalidCatalogChannel }

// String returns the string representation of the OverlayPath.
func (p OverlayPath) String() string { return string(p) }

// IsValid returns whether the OverlayPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p OverlayPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidOverlayPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidOverlayPathError.
func (e *InvalidOverlayPathError) Error() string {
	return fmt.Sprintf("invalid overlay path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidOverlayPath for errors.Is() compatibility.
func (e *InvalidOverlayPathError) Unwrap() error { return ErrInvalidOverlayPath }

// Error implements the error interface for InvalidCatalogTimeoutError.
func (e *InvalidCatalogTimeoutError) Error() string {
	return fmt.Sprintf("invalid catalog timeout %d: timeout_seconds must be positive", e.Value)
}

// Unwrap returns ErrInvalidCatalogTimeout for errors.Is() compatibility.
func (e *InvalidCatalogTimeoutError) Unwrap() error { return ErrInvalidCatalogTimeout }

// IsValid returns whether the CatalogConfig has valid fields.
// It delegates to URL.IsValid(), Channel.IsValid(), each overlay's
// IsValid(), and checks that TimeoutSeconds is positive.
func (c CatalogConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.URL.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Channel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, overlay := range c.Overlays {
		if valid, fieldErrs := overlay.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, &InvalidCatalogTimeoutError{Value: c.TimeoutSeconds})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidCatalogConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCatalogConfigError.
func (e *InvalidCatalogConfigError) Error() string {
	return fmt.Sprintf("invalid catalog config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidCatalogConfig for errors.Is() compatibility.
func (e *InvalidCatalogConfigError) Unwrap() error { return ErrInvalidCatalogConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to CacheDir.IsValid(), Catalog.IsValid(), Shell.IsValid(),
// and UI.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.CacheDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Catalog.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Shell.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheDir: "", // Will use default cache dir if empty
		Catalog: CatalogConfig{
			URL:            DefaultCatalogURL,
			Channel:        DefaultCatalogChannel,
			Overlays:       []OverlayPath{},
			TimeoutSeconds: DefaultCatalogTimeoutSeconds,
		},
		Shell: "", // Will use $SHELL if empty
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
