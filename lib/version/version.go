// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// ModuleFormat is the module layout version this build writes and
// reads, as it appears in the module header.
const ModuleFormat = "v1"

// Commit returns the build's commit and whether the tree was dirty.
// When -ldflags did not set GitCommit, the VCS stamp the go command
// embeds in the binary is used instead.
func Commit() (string, bool) {
	if GitCommit != "unknown" {
		return GitCommit, GitDirty == "true"
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return GitCommit, false
	}
	commit, dirty := GitCommit, false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value[:min(len(setting.Value), 12)]
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return commit, dirty
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	commit, dirty := Commit()
	suffix := ""
	if dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, BuildTime)
}

// Full returns detailed version information including the Go version
// and module format.
func Full() string {
	return fmt.Sprintf("%s\n  Module format: %s\n  Go: %s\n  Platform: %s/%s",
		Info(), ModuleFormat, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
