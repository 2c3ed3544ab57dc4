// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package b4a is the byte-buffer helper handed to every dynenc module as
// one of its two fixed externals. It converts between strings and byte
// slices in a small set of encodings and allocates output buffers for
// the compact encoding driver.
//
// The package is stateless and safe for concurrent use.
package b4a

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// Encoding names a string representation of bytes.
type Encoding string

const (
	// UTF8 treats the string as its raw UTF-8 bytes. The empty Encoding
	// means UTF8.
	UTF8 Encoding = "utf8"

	// Hex is lowercase hexadecimal.
	Hex Encoding = "hex"

	// Base64 is standard padded base64 (RFC 4648 §4).
	Base64 Encoding = "base64"
)

// ParseEncoding returns the Encoding for a name. The empty name and
// "utf-8" are accepted as UTF8.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "", "utf8", "utf-8":
		return UTF8, nil
	case "hex":
		return Hex, nil
	case "base64":
		return Base64, nil
	default:
		return "", fmt.Errorf("b4a: unknown encoding %q", name)
	}
}

// From returns the bytes of value. A []byte is copied; a string is
// decoded according to encoding.
func From(value any, encoding Encoding) ([]byte, error) {
	switch typed := value.(type) {
	case []byte:
		return append([]byte(nil), typed...), nil
	case string:
		return decodeString(typed, encoding)
	default:
		return nil, fmt.Errorf("b4a: cannot make a buffer from %T", value)
	}
}

// ToString renders buffer as a string in encoding. UTF8 rejects buffers
// that are not valid UTF-8.
func ToString(buffer []byte, encoding Encoding) (string, error) {
	switch encoding {
	case "", UTF8:
		if !utf8.Valid(buffer) {
			return "", fmt.Errorf("b4a: buffer is not valid UTF-8")
		}
		return string(buffer), nil
	case Hex:
		return hex.EncodeToString(buffer), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(buffer), nil
	default:
		return "", fmt.Errorf("b4a: unknown encoding %q", encoding)
	}
}

// ByteLength returns the number of bytes in the UTF-8 encoding of s.
func ByteLength(s string) int {
	return len(s)
}

// Alloc returns a zeroed buffer of n bytes. Like make, it panics when n
// is negative.
func Alloc(n int) []byte {
	return make([]byte, n)
}

func decodeString(s string, encoding Encoding) ([]byte, error) {
	switch encoding {
	case "", UTF8:
		return []byte(s), nil
	case Hex:
		decoded, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("b4a: decoding hex: %w", err)
		}
		return decoded, nil
	case Base64:
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("b4a: decoding base64: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("b4a: unknown encoding %q", encoding)
	}
}
