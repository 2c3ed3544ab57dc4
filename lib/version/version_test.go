// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	originalCommit, originalDirty := GitCommit, GitDirty
	defer func() { GitCommit, GitDirty = originalCommit, originalDirty }()

	GitCommit = "abc1234"
	GitDirty = "false"
	if info := Info(); !strings.Contains(info, "(abc1234, ") {
		t.Errorf("clean build: Info() = %q", info)
	}
	GitDirty = "true"
	if info := Info(); !strings.Contains(info, "abc1234-dirty") {
		t.Errorf("dirty build not marked: %q", info)
	}
	if commit, dirty := Commit(); commit != "abc1234" || !dirty {
		t.Errorf("Commit() = %q, %v", commit, dirty)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) || !strings.Contains(full, "Module format: v1") {
		t.Errorf("Full() = %q", full)
	}
}
