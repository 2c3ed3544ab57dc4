// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compact implements the compact-encoding contract that dynenc
// encoders satisfy.
//
// An encoder is three operations over a caller-owned [State]:
//
//   - Preencode advances State.End by the number of bytes the value
//     will occupy, without writing.
//   - Encode writes the value at State.Start and advances Start.
//   - Decode reads a value at State.Start, advances Start, and returns
//     the value. Reading past State.End fails with [ErrOutOfBounds].
//
// [Encode] and [Decode] drive the two-pass protocol: preencode to size
// the value, allocate exactly that many bytes, encode into them. An
// encode pass that writes a different number of bytes than preencode
// promised is an error, not a truncated buffer.
//
// The package also provides the primitive codecs module code reaches
// through the cenc capability: uint, int, bool, string, buffer, json and
// cbor. The length prefix and integer encoding are the compact varint:
// values below 0xfd take one byte, then 0xfd, 0xfe and 0xff introduce
// little-endian 16, 32 and 64 bit values.
package compact
