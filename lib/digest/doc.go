// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest provides the pluggable content hashers dynenc uses to
// fingerprint canonical module text.
//
// A [Hasher] maps bytes to a lowercase hex digest string. It receives a
// context because hashers may be remote (a signing service, an HSM) and
// may fail; the built-in hashers never do.
//
// The API surface:
//
//   - [SHA256] -- the default hasher, SHA-256 via minio/sha256-simd
//   - [BLAKE3] -- BLAKE3 keyed with a fixed module domain key, so a
//     module digest never collides with a plain BLAKE3 of the same bytes
//   - [BLAKE2b] -- BLAKE2b-256
//   - [Lookup] and [Names] -- the by-name registry the CLI and config use
//   - [Equal] -- constant-time digest comparison
//   - [ShortRef] -- a short human-readable reference for logs and CLI
//     output
//   - [FormatDigest] and [ParseDigest] -- conversion between [32]byte
//     digests and their hex form
//
// This package has no dependencies on other dynenc packages.
package digest
