// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCUEPath is the sentinel error wrapped by InvalidCUEPathError.
var ErrInvalidCUEPath = errors.New("invalid CUE path")

type (
	// CUEPath represents a path expression into a CUE value, either a
	// schema definition reference ("#Shedfile") or a JSON-style field path
	// used in error messages ("platforms[0].libraries").
	// A valid path must be non-empty and not whitespace-only.
	CUEPath string

	// InvalidCUEPathError is returned when a CUEPath value is empty or
	// whitespace-only. It wraps ErrInvalidCUEPath for errors.Is()
	// compatibility.
	InvalidCUEPathError struct {
		Value CUEPath
	}
)

// String returns the string representation of the CUEPath.
func (p CUEPath) String() string { return string(p) }

// Validate returns an error if the CUEPath is empty or whitespace-only.
func (p CUEPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidCUEPathError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidCUEPathError.
func (e *InvalidCUEPathError) Error() string {
	return fmt.Sprintf("invalid CUE path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidCUEPath for errors.Is() compatibility.
func (e *InvalidCUEPathError) Unwrap() error { return ErrInvalidCUEPath }
