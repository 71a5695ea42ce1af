// SPDX-License-Identifier: MPL-2.0

// Package lockfile reads and writes shed.lock, the TOML file pinning
// resolved artifacts per (name, platform). The lock is advisory during
// normal entry and authoritative under --frozen, where LockedCatalog
// serves artifacts straight from the pinned entries without consulting
// any remote catalog. Saves are atomic (temp file plus rename) and entry
// order is canonicalized so repeated locking of the same resolution
// produces byte-identical files.
package lockfile
