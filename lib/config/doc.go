// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the dynenc
// command.
//
// Configuration is loaded from a single file specified by either the
// DYNENC_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search. Without a file the command runs on [Default].
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches. Production defaults are quieter:
// logging starts at warn.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Encoder, Log and Paths
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
