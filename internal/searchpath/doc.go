// SPDX-License-Identifier: MPL-2.0

// Package searchpath computes the dynamic linker search path and PATH
// additions for a provisioned session. All functions are pure: the
// inherited value is always kept as a suffix of the result, never
// replaced, so binaries from the host environment stay reachable.
package searchpath
