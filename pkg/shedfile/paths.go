// SPDX-License-Identifier: MPL-2.0

package shedfile

import (
	"errors"
	"fmt"
	"strings"

	"shed-cli/internal/platform"
	"shed-cli/pkg/types"
)

// ErrInvalidEnvFilePath is the sentinel error wrapped by InvalidEnvFilePathError.
var ErrInvalidEnvFilePath = errors.New("invalid env file path")

// ErrInvalidFilesystemPath is the sentinel error re-exported so shedfile
// consumers don't need to import pkg/types directly.
var ErrInvalidFilesystemPath = types.ErrInvalidFilesystemPath

type (
	// FilesystemPath is a type alias for the cross-cutting value type in
	// pkg/types; all shedfile consumers use this alias.
	FilesystemPath = types.FilesystemPath

	// InvalidFilesystemPathError is a type alias re-exported alongside
	// FilesystemPath.
	InvalidFilesystemPathError = types.InvalidFilesystemPathError

	// DescriptionText is a type alias for the cross-cutting value type in
	// pkg/types.
	DescriptionText = types.DescriptionText

	// EnvFilePath represents a path to a dotenv file loaded into the
	// session environment. Paths are relative to the shedfile location.
	// Paths suffixed with '?' are optional and will not cause an error if
	// missing. A valid EnvFilePath must be non-empty and not
	// whitespace-only.
	EnvFilePath string

	// InvalidEnvFilePathError is returned when an EnvFilePath value is
	// empty, whitespace-only, or unusable on some supported platform. It
	// wraps ErrInvalidEnvFilePath for errors.Is().
	InvalidEnvFilePathError struct {
		Value EnvFilePath
		// Reason overrides the default non-empty message when set.
		Reason string
	}
)

// String returns the string representation of the EnvFilePath.
func (p EnvFilePath) String() string { return string(p) }

// IsOptional reports whether the path carries the '?' optional suffix.
func (p EnvFilePath) IsOptional() bool { return strings.HasSuffix(string(p), "?") }

// Path returns the filesystem path with any optional suffix stripped.
func (p EnvFilePath) Path() string { return strings.TrimSuffix(string(p), "?") }

// IsValid returns whether the EnvFilePath is valid.
// A valid path must be non-empty, not whitespace-only (the optional
// suffix alone does not make a path), and usable as a filename on every
// platform a shedfile may be shared with.
func (p EnvFilePath) IsValid() (bool, []error) {
	if strings.TrimSpace(p.Path()) == "" {
		return false, []error{&InvalidEnvFilePathError{Value: p}}
	}
	for part := range strings.SplitSeq(p.Path(), "/") {
		if platform.IsWindowsReservedName(part) {
			return false, []error{&InvalidEnvFilePathError{
				Value:  p,
				Reason: fmt.Sprintf("%q is a reserved filename on Windows", part),
			}}
		}
	}
	return true, nil
}

// Error implements the error interface for InvalidEnvFilePathError.
func (e *InvalidEnvFilePathError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "must be non-empty"
	}
	return fmt.Sprintf("invalid env file path %q: %s", e.Value, reason)
}

// Unwrap returns ErrInvalidEnvFilePath for errors.Is() compatibility.
func (e *InvalidEnvFilePathError) Unwrap() error { return ErrInvalidEnvFilePath }
