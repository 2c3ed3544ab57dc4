// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/cmd/dynenc/commands"
)

// TestCommandTree walks the production command tree and checks that
// every leaf can run, has a summary, and declares params whose flags
// build without panicking.
func TestCommandTree(t *testing.T) {
	root := commands.Root(commands.NewApp())
	walkCommands(root, nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if len(command.Subcommands) > 0 {
			return
		}
		if command.Run == nil {
			t.Errorf("%s: leaf command has no Run", name)
		}
		if command.Summary == "" {
			t.Errorf("%s: missing Summary", name)
		}
		if command.Params != nil {
			cli.FlagsFromParams(command.Name, command.Params())
		}
	})
}

// walkCommands recursively visits every command in the tree,
// calling visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}
