// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the dynenc CLI command tree.
//
// Every command runs against an [App], which carries the standard
// streams, the host implementations definition files may name, and the
// log level the command sets from its config. main wires an App to the
// process; tests wire one to buffers.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
)

// App is the environment commands run in.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Hosts maps the names definition files use in "host:" entries to
	// a dynenc.HostFunc or dynenc.HostObject.
	Hosts map[string]any

	// Level is the level of the logger passed to Execute. Commands set
	// it from the loaded config.
	Level *slog.LevelVar
}

// NewApp returns an App on the process's standard streams with the
// built-in host implementations.
func NewApp() *App {
	return &App{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Hosts:  BuiltinHosts(),
		Level:  new(slog.LevelVar),
	}
}

// Root builds the complete dynenc command tree.
func Root(app *App) *cli.Command {
	return &cli.Command{
		Name: "dynenc",
		Description: `dynenc: integrity-verified dynamic encoder modules.

Package an encoder definition (encode, decode and preencode functions
plus their dependencies) into a self-contained artifact with a content
digest, and load artifacts back only when they hash to the digest you
expect.`,
		HelpOutput: app.Stderr,
		Subcommands: []*cli.Command{
			createCommand(app),
			verifyCommand(app),
			inspectCommand(app),
			hashCommand(app),
			encodeCommand(app),
			decodeCommand(app),
			versionCommand(app),
		},
	}
}
