// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides dynenc's deterministic CBOR configuration.
//
// Two places in dynenc need bytes that are a pure function of a logical
// value: the canonical text of a module, which folds data dependencies
// in as hex-encoded CBOR, and the "cbor" compact primitive that module
// code reaches through the cenc capability. Both go through this
// package so that every caller encodes identically.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same logical value always produces identical bytes, regardless of Go
// map iteration order.
//
// Module code exchanges values as JSON text, so the package also
// bridges JSON and CBOR:
//
//	value, err := codec.FromJSON(data)   // json.Number -> int64/float64
//	data, err := codec.Marshal(value)
//
// Artifact records written by the CLI with a .cbor extension use
// [NewEncoder] and [NewDecoder] directly.
package codec
