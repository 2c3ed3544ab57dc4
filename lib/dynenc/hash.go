// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"context"
	"errors"

	"github.com/bureau-foundation/dynenc/lib/digest"
)

// Hash returns the digest of canonical text under hasher. A nil hasher
// selects [digest.SHA256]. Any hasher failure, including an empty
// digest, is returned as a *HasherError.
func Hash(ctx context.Context, canonical string, hasher digest.Hasher) (string, error) {
	if hasher == nil {
		hasher = digest.SHA256
	}
	sum, err := hasher(ctx, []byte(canonical))
	if err != nil {
		return "", &HasherError{Err: err}
	}
	if sum == "" {
		return "", &HasherError{Err: errors.New("hasher returned an empty digest")}
	}
	return sum, nil
}
