// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dynenc packages encoder definitions into portable artifacts
// and loads them back only after verifying their integrity.
//
// An encoder is up to three capabilities, Encode, Decode and Preencode,
// written as shell functions (see [Source]) and run by an embedded
// interpreter that can reach nothing but what the module is given:
//
//	cenc <primitive> preencode|encode <json>  write to the encoding state
//	cenc <primitive> decode                   read from it, printing JSON
//	b4a from|toString|byteLength|alloc ...     byte buffer helper
//	<dependency> ...                          a named dependency
//
// Every value crossing the boundary is JSON text. Encode and Preencode
// receive the value as $1; Decode prints the decoded value.
//
// [Create] canonicalizes the definition, hashes the canonical text with
// a pluggable [digest.Hasher], and packs a module into an [Artifact]:
//
//	created, err := dynenc.Create(ctx, dynenc.Definition{
//	    Encode:    `cenc json encode "$1"`,
//	    Decode:    `cenc json decode`,
//	    Preencode: `cenc json preencode "$1"`,
//	})
//
// [Load] unpacks an artifact, recomputes the digest over the module's
// declarations and the load-time dependencies, and returns an [Encoder]
// only when it equals the digest the caller trusts:
//
//	encoder, err := dynenc.Load(ctx, created.Artifact, created.Hash)
//	data, err := compact.Encode(encoder, map[string]any{"foo": "bar"})
//
// The canonical form depends on syntax structure, not layout: the two
// function declaration spellings, whitespace and comments all hash the
// same, while a different body construct (a subshell instead of a brace
// group) does not. Host dependencies ([HostFunc], [HostObject]) are part
// of the digest by name only and may be swapped at load time. Script
// dependencies ([Source]) and data dependencies are part of it by value.
package dynenc
