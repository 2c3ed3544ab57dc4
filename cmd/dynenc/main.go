// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command dynenc packages encoder definitions into integrity-verified
// module artifacts and loads them back.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/cmd/dynenc/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own result (like verify) return an
		// ExitError. Don't print a redundant "error:" line for those.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := commands.NewApp()
	logger := cli.NewCommandLogger(os.Stderr, app.Level)
	return commands.Root(app).Execute(ctx, os.Args[1:], logger)
}
