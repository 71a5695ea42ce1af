// SPDX-License-Identifier: MPL-2.0

// Package resolve turns a shedfile's per-platform dependency lists into
// concrete store artifacts. Names are resolved in manifest order, repeated
// names collapse to their first occurrence, and the first unresolved name
// aborts the whole resolution so a session never starts on a partial
// dependency set.
package resolve
