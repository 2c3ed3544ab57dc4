// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	sha256 "github.com/minio/sha256-simd"
	"github.com/multiformats/go-base36"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Hasher computes the digest of data as a lowercase hex string.
type Hasher func(ctx context.Context, data []byte) (string, error)

// DefaultName is the registry name of the default hasher.
const DefaultName = "sha256"

// moduleDomainKey keys the BLAKE3 hasher. The bytes are the ASCII
// encoding of the domain name, zero-padded to 32 bytes. Changing it
// invalidates every BLAKE3 module digest.
var moduleDomainKey = [32]byte{
	'd', 'y', 'n', 'e', 'n', 'c', '.', 'm', 'o', 'd', 'u', 'l', 'e', 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// SHA256 is the default hasher: the SHA-256 digest of data.
func SHA256(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return FormatDigest(sum), nil
}

// BLAKE3 is the module-domain BLAKE3 keyed hash of data.
func BLAKE3(ctx context.Context, data []byte) (string, error) {
	// NewKeyed only fails for keys that are not 32 bytes.
	hasher, err := blake3.NewKeyed(moduleDomainKey[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return FormatDigest(sum), nil
}

// BLAKE2b is the unkeyed BLAKE2b-256 digest of data.
func BLAKE2b(ctx context.Context, data []byte) (string, error) {
	sum := blake2b.Sum256(data)
	return FormatDigest(sum), nil
}

var registry = map[string]Hasher{
	"sha256":  SHA256,
	"blake3":  BLAKE3,
	"blake2b": BLAKE2b,
}

// Lookup returns the built-in hasher registered under name. Names are
// case-insensitive; the empty name selects the default.
func Lookup(name string) (Hasher, error) {
	if name == "" {
		name = DefaultName
	}
	hasher, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown hasher %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return hasher, nil
}

// Names returns the registered hasher names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Equal reports whether two digest strings are identical, in time that
// depends only on their lengths.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ShortRef returns a short reference for a hex digest: "dyn-" followed
// by the lowercase base36 encoding of its first 8 bytes. Digests that
// are not hex, or are shorter than 8 bytes, fall back to their first 16
// characters.
func ShortRef(hexDigest string) string {
	decoded, err := hex.DecodeString(hexDigest)
	if err != nil || len(decoded) < 8 {
		return "dyn-" + hexDigest[:min(len(hexDigest), 16)]
	}
	return "dyn-" + base36.EncodeToStringLc(decoded[:8])
}

// FormatDigest returns the hex-encoded string form of a 32-byte digest.
func FormatDigest(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a 32-byte digest.
func ParseDigest(hexString string) ([32]byte, error) {
	var digest [32]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
