// SPDX-License-Identifier: MPL-2.0

// Package session orchestrates entering a provisioned environment:
// load the manifest, resolve and realize its packages, compose the
// environment, run the bootstrap sequence and on-enter hook, and hand
// control to an interactive shell (or a one-shot command). A failure in
// any step means the shell is never entered and the parent process
// environment is never touched.
package session
