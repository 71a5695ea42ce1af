// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const (
	// PlatformX8664Linux is 64-bit x86 Linux.
	PlatformX8664Linux Platform = "x86_64-linux"
	// PlatformAarch64Linux is 64-bit ARM Linux.
	PlatformAarch64Linux Platform = "aarch64-linux"
	// PlatformX8664Darwin is 64-bit x86 macOS.
	PlatformX8664Darwin Platform = "x86_64-darwin"
	// PlatformAarch64Darwin is Apple Silicon macOS.
	PlatformAarch64Darwin Platform = "aarch64-darwin"
)

// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// AllPlatforms lists the platforms the catalog carries package builds for.
var AllPlatforms = []Platform{
	PlatformX8664Linux,
	PlatformAarch64Linux,
	PlatformX8664Darwin,
	PlatformAarch64Darwin,
}

type (
	// Platform identifies an architecture/OS pair in system-triple form
	// ("x86_64-linux"). It is the key half of every catalog lookup and is
	// immutable for the lifetime of a session.
	Platform string

	// UnsupportedPlatformError is returned when a Platform value is not one
	// of the supported triples. It wraps ErrUnsupportedPlatform for
	// errors.Is() compatibility.
	UnsupportedPlatformError struct {
		Value Platform
	}
)

// Detect returns the Platform for the current host, derived from
// runtime.GOOS and runtime.GOARCH.
func Detect() (Platform, error) {
	switch runtime.GOOS {
	case Linux:
		switch runtime.GOARCH {
		case "amd64":
			return PlatformX8664Linux, nil
		case "arm64":
			return PlatformAarch64Linux, nil
		}
	case Darwin:
		switch runtime.GOARCH {
		case "amd64":
			return PlatformX8664Darwin, nil
		case "arm64":
			return PlatformAarch64Darwin, nil
		}
	}
	return "", &UnsupportedPlatformError{
		Value: Platform(runtime.GOOS + "-" + runtime.GOARCH),
	}
}

// Normalize parses a user-supplied platform string into its canonical
// form. Both "x86_64-linux" and the reversed "linux-x86_64" spelling are
// accepted; anything else returns an UnsupportedPlatformError.
func Normalize(s string) (Platform, error) {
	candidate := Platform(s)
	if valid, _ := candidate.IsValid(); valid {
		return candidate, nil
	}

	// Try the reversed os-arch spelling.
	if os, arch, found := strings.Cut(s, "-"); found {
		reversed := Platform(arch + "-" + os)
		if valid, _ := reversed.IsValid(); valid {
			return reversed, nil
		}
	}

	return "", &UnsupportedPlatformError{Value: candidate}
}

// String returns the string representation of the Platform.
func (p Platform) String() string { return string(p) }

// IsValid returns whether the Platform is one of the supported triples,
// and a list of validation errors if it is not.
func (p Platform) IsValid() (bool, []error) {
	for _, known := range AllPlatforms {
		if p == known {
			return true, nil
		}
	}
	return false, []error{&UnsupportedPlatformError{Value: p}}
}

// OS returns the operating-system half of the triple ("linux", "darwin"),
// or "" if the value is not a well-formed triple.
func (p Platform) OS() string {
	if _, os, found := strings.Cut(string(p), "-"); found {
		return os
	}
	return ""
}

// Arch returns the architecture half of the triple ("x86_64", "aarch64"),
// or "" if the value is not a well-formed triple.
func (p Platform) Arch() string {
	if arch, _, found := strings.Cut(string(p), "-"); found {
		return arch
	}
	return ""
}

// Error implements the error interface for UnsupportedPlatformError.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q (supported: %s)", e.Value, supportedList())
}

// Unwrap returns ErrUnsupportedPlatform for errors.Is() compatibility.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

func supportedList() string {
	names := make([]string, len(AllPlatforms))
	for i, p := range AllPlatforms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
