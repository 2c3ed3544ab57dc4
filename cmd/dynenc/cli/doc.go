// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the dynenc CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a params struct whose tagged
// fields become flags (see [BindFlags]), and a Run function. Commands are
// assembled into a tree in cmd/dynenc/commands and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing, and
// structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Errors returned by commands carry a category ([ToolError]) that
// [ExitCode] maps to the process exit status, so scripts can tell an
// integrity failure from a usage mistake.
package cli
