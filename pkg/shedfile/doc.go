// SPDX-License-Identifier: MPL-2.0

// Package shedfile defines the schema and parsing for shedfile CUE files.
//
// A shedfile declares everything a reproducible development shell needs:
// per-platform lists of native libraries and command-line tools to resolve
// against the package catalog, a toolchain bootstrap (channel, compilation
// targets, editor components), CLI extensions ensured via probe-then-install,
// and hooks run when the shell is entered.
//
// Parsing validates against an embedded CUE schema before decoding, so a
// manifest that parses successfully is structurally sound; Validate adds the
// cross-field checks CUE cannot express.
package shedfile
