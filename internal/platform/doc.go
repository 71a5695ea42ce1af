// SPDX-License-Identifier: MPL-2.0

// Package platform models the target platform identifiers used to select
// package builds from the catalog, plus host-side concerns that depend on
// the operating system (sandbox detection for spawning the interactive
// shell, linker path variable names).
//
// Platform identifiers follow the system-triple convention used by the
// package catalog ("x86_64-linux", "aarch64-darwin"). Normalize also
// accepts the reversed "os-arch" spelling some callers supply.
package platform
