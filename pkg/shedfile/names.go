// SPDX-License-Identifier: MPL-2.0

package shedfile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidPlatformID is the sentinel error wrapped by InvalidPlatformIDError.
	ErrInvalidPlatformID = errors.New("invalid platform identifier")
	// ErrInvalidChannelName is the sentinel error wrapped by InvalidChannelNameError.
	ErrInvalidChannelName = errors.New("invalid channel name")
	// ErrInvalidTargetName is the sentinel error wrapped by InvalidTargetNameError.
	ErrInvalidTargetName = errors.New("invalid target name")
	// ErrInvalidComponentName is the sentinel error wrapped by InvalidComponentNameError.
	ErrInvalidComponentName = errors.New("invalid component name")
	// ErrInvalidExtensionName is the sentinel error wrapped by InvalidExtensionNameError.
	ErrInvalidExtensionName = errors.New("invalid extension name")

	// packageNamePattern matches catalog package names: alphanumerics plus
	// the separators package sets actually use (gtk3, webkitgtk_4_1,
	// wasm-bindgen-cli, openssl.dev).
	packageNamePattern = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)

	// platformIDPattern matches opaque arch-os identifiers ("x86_64-linux").
	platformIDPattern = regexp.MustCompile(`^[a-z0-9_]+-[a-z0-9_]+$`)

	// toolchainTokenPattern matches channel, target, and component names
	// ("stable", "wasm32-unknown-unknown", "rust-analyzer").
	toolchainTokenPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

type (
	// PackageName is the name half of a (name, platform) catalog lookup.
	// Names are opaque to shed beyond charset checks; what they resolve to
	// is entirely the catalog's business.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName is empty or
	// contains characters outside the allowed set.
	InvalidPackageNameError struct {
		Value PackageName
	}

	// PlatformID is the platform half of a (name, platform) catalog lookup
	// as declared in a manifest. It is deliberately opaque here: the session
	// layer decides whether the running host matches a declared platform.
	PlatformID string

	// InvalidPlatformIDError is returned when a PlatformID is not an
	// arch-os styled identifier.
	InvalidPlatformIDError struct {
		Value PlatformID
	}

	// ChannelName names a toolchain release channel ("stable", "1.77.0").
	ChannelName string

	// InvalidChannelNameError is returned when a ChannelName is empty or
	// malformed.
	InvalidChannelNameError struct {
		Value ChannelName
	}

	// TargetName names an additional compilation target registered with the
	// toolchain manager ("wasm32-unknown-unknown").
	TargetName string

	// InvalidTargetNameError is returned when a TargetName is empty or
	// malformed.
	InvalidTargetNameError struct {
		Value TargetName
	}

	// ComponentName names a toolchain component ("rust-analyzer").
	ComponentName string

	// InvalidComponentNameError is returned when a ComponentName is empty
	// or malformed.
	InvalidComponentNameError struct {
		Value ComponentName
	}

	// ExtensionName names an auxiliary CLI extension ensured at bootstrap
	// ("tauri-cli").
	ExtensionName string

	// InvalidExtensionNameError is returned when an ExtensionName is empty
	// or contains characters outside the allowed set.
	InvalidExtensionNameError struct {
		Value ExtensionName
	}
)

// String returns the string representation of the PackageName.
func (n PackageName) String() string { return string(n) }

// IsValid returns whether the PackageName matches the allowed charset,
// and a list of validation errors if it does not.
func (n PackageName) IsValid() (bool, []error) {
	if !packageNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidPackageNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPackageNameError.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must match %s", e.Value, packageNamePattern)
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// String returns the string representation of the PlatformID.
func (p PlatformID) String() string { return string(p) }

// IsValid returns whether the PlatformID is an arch-os styled identifier,
// and a list of validation errors if it is not.
func (p PlatformID) IsValid() (bool, []error) {
	if !platformIDPattern.MatchString(string(p)) {
		return false, []error{&InvalidPlatformIDError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPlatformIDError.
func (e *InvalidPlatformIDError) Error() string {
	return fmt.Sprintf("invalid platform identifier %q: expected arch-os form like \"x86_64-linux\"", e.Value)
}

// Unwrap returns ErrInvalidPlatformID for errors.Is() compatibility.
func (e *InvalidPlatformIDError) Unwrap() error { return ErrInvalidPlatformID }

// String returns the string representation of the ChannelName.
func (c ChannelName) String() string { return string(c) }

// IsValid returns whether the ChannelName is well-formed,
// and a list of validation errors if it is not.
func (c ChannelName) IsValid() (bool, []error) {
	if !toolchainTokenPattern.MatchString(string(c)) {
		return false, []error{&InvalidChannelNameError{Value: c}}
	}
	return true, nil
}

// Error implements the error interface for InvalidChannelNameError.
func (e *InvalidChannelNameError) Error() string {
	return fmt.Sprintf("invalid channel name %q: must match %s", e.Value, toolchainTokenPattern)
}

// Unwrap returns ErrInvalidChannelName for errors.Is() compatibility.
func (e *InvalidChannelNameError) Unwrap() error { return ErrInvalidChannelName }

// String returns the string representation of the TargetName.
func (t TargetName) String() string { return string(t) }

// IsValid returns whether the TargetName is well-formed,
// and a list of validation errors if it is not.
func (t TargetName) IsValid() (bool, []error) {
	if !toolchainTokenPattern.MatchString(string(t)) {
		return false, []error{&InvalidTargetNameError{Value: t}}
	}
	return true, nil
}

// Error implements the error interface for InvalidTargetNameError.
func (e *InvalidTargetNameError) Error() string {
	return fmt.Sprintf("invalid target name %q: must match %s", e.Value, toolchainTokenPattern)
}

// Unwrap returns ErrInvalidTargetName for errors.Is() compatibility.
func (e *InvalidTargetNameError) Unwrap() error { return ErrInvalidTargetName }

// String returns the string representation of the ComponentName.
func (c ComponentName) String() string { return string(c) }

// IsValid returns whether the ComponentName is well-formed,
// and a list of validation errors if it is not.
func (c ComponentName) IsValid() (bool, []error) {
	if !toolchainTokenPattern.MatchString(string(c)) {
		return false, []error{&InvalidComponentNameError{Value: c}}
	}
	return true, nil
}

// Error implements the error interface for InvalidComponentNameError.
func (e *InvalidComponentNameError) Error() string {
	return fmt.Sprintf("invalid component name %q: must match %s", e.Value, toolchainTokenPattern)
}

// Unwrap returns ErrInvalidComponentName for errors.Is() compatibility.
func (e *InvalidComponentNameError) Unwrap() error { return ErrInvalidComponentName }

// String returns the string representation of the ExtensionName.
func (n ExtensionName) String() string { return string(n) }

// IsValid returns whether the ExtensionName matches the allowed charset,
// and a list of validation errors if it is not.
func (n ExtensionName) IsValid() (bool, []error) {
	if strings.TrimSpace(string(n)) == "" || !packageNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidExtensionNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExtensionNameError.
func (e *InvalidExtensionNameError) Error() string {
	return fmt.Sprintf("invalid extension name %q: must match %s", e.Value, packageNamePattern)
}

// Unwrap returns ErrInvalidExtensionName for errors.Is() compatibility.
func (e *InvalidExtensionNameError) Unwrap() error { return ErrInvalidExtensionName }
