// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger writing to w. When w is
// a terminal, uses slog.TextHandler for human-readable output. When it
// is piped or redirected, uses slog.JSONHandler for machine-parseable
// output. The level is read through level on every record, so a
// command can raise or lower it after loading its config.
//
//	level := new(slog.LevelVar)
//	logger := cli.NewCommandLogger(os.Stderr, level)
//	level.Set(slog.LevelDebug)
func NewCommandLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
