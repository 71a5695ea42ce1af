// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// Sandbox type constants.
const (
	// SandboxNone indicates no sandbox environment detected.
	SandboxNone SandboxType = ""
	// SandboxFlatpak indicates a Flatpak sandbox environment.
	SandboxFlatpak SandboxType = "flatpak"
	// SandboxSnap indicates a Snap sandbox environment.
	SandboxSnap SandboxType = "snap"
)

// detectOnce caches the sandbox detection result for the lifetime of the
// process.
//
// INVARIANT: detectSandboxFrom MUST NOT panic. Unlike sync.Once (where Do
// treats a panic as "returned" and silently no-ops on subsequent calls),
// sync.OnceValue propagates the panic on every call, creating a persistent
// crash condition.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, statFile)
})

// SandboxType identifies the type of application sandbox, if any.
// When shed itself runs inside a sandbox, the interactive shell must be
// spawned on the host side or the provisioned library paths would point
// at files the sandbox cannot see.
type SandboxType string

// DetectSandbox returns the type of application sandbox the current
// process is running in. The result is cached after the first call.
//
// Detection methods:
//   - Flatpak: checks for existence of /.flatpak-info
//   - Snap: checks for the SNAP_NAME environment variable
func DetectSandbox() SandboxType {
	return detectOnce()
}

// IsInSandbox returns true if the current process is running inside a sandbox.
func IsInSandbox() bool {
	return DetectSandbox() != SandboxNone
}

// SpawnCommandFor returns the command used to spawn processes on the host
// system for a given sandbox type, or "" when no wrapper is needed.
// This is a pure function that does not depend on cached detection state.
func SpawnCommandFor(st SandboxType) string {
	switch st {
	case SandboxFlatpak:
		return "flatpak-spawn"
	case SandboxSnap:
		return "snap"
	default:
		return ""
	}
}

// SpawnArgsFor returns the arguments prepended to a command to execute it
// on the host for a given sandbox type, or nil when no wrapper is needed.
func SpawnArgsFor(st SandboxType) []string {
	switch st {
	case SandboxFlatpak:
		return []string{"--host"}
	case SandboxSnap:
		return []string{"run", "--shell"}
	default:
		return nil
	}
}

// detectSandboxFrom performs sandbox detection using the provided lookup
// functions. Accepting lookupEnv and statFile as parameters allows tests
// to inject custom behavior without mutating process-wide state.
func detectSandboxFrom(lookupEnv func(string) string, statFile func(string) error) SandboxType {
	// Flatpak takes precedence; /.flatpak-info is always present inside
	// Flatpak sandboxes.
	if err := statFile("/.flatpak-info"); err == nil {
		return SandboxFlatpak
	}

	if lookupEnv("SNAP_NAME") != "" {
		return SandboxSnap
	}

	return SandboxNone
}

// statFile checks for the existence of a file at the given path, wrapping
// os.Stat to match the func(string) error signature of detectSandboxFrom.
func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
