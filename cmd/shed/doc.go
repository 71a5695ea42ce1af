// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for shed.
//
// This package implements the Cobra command hierarchy for the shed CLI,
// including the root command, subcommands for entering and resolving
// environments, lockfile management, diagnostics, and the SSH serving
// mode.
package cmd
