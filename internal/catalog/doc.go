// SPDX-License-Identifier: MPL-2.0

// Package catalog resolves package names against a binary package catalog
// and realizes the resolved artifacts into a local store.
//
// A Catalog answers (name, platform) lookups with an Artifact describing a
// prebuilt package: its content-addressed store path plus the archive URL
// and hashes needed to download it. Three implementations are provided:
//
//   - RemoteCatalog resolves against an HTTP build-farm endpoint and the
//     binary cache serving .narinfo metadata.
//   - OverlayCatalog resolves against local YAML overlay files, consulted
//     before the network for air-gapped and pinned setups.
//   - MockCatalog serves artificial artifacts for tests.
//
// Chain composes catalogs in priority order. Realizer downloads, verifies,
// and unpacks an Artifact's archive into <cache>/store/<hash>-<name>/,
// skipping artifacts whose output directory already exists.
package catalog
