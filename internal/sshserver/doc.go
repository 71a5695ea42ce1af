// SPDX-License-Identifier: MPL-2.0

// Package sshserver shares a provisioned environment over loopback SSH
// using the Wish library.
//
// After `shed serve` provisions an environment, other local processes
// (a second terminal, an editor, a build bot) can open shells or run
// commands inside that environment without provisioning it again.
// Connections authenticate with single-session tokens generated by the
// server; no public keys, no remote access.
package sshserver
