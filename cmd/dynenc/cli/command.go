// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command represents a CLI command or subcommand.
type Command struct {
	// Name is the command name as typed by the user (e.g., "create").
	Name string

	// Summary is a one-line description shown in the parent's help listing.
	Summary string

	// Description is a detailed multi-line description shown in the command's
	// own help output.
	Description string

	// Usage is the usage string (e.g., "dynenc create <definition> [flags]").
	// If empty, it is synthesized from the command path and subcommands.
	Usage string

	// Examples are shown in the help output after the description.
	Examples []Example

	// Params returns a pointer to the command's params struct. Its
	// tagged fields are bound as flags before Run is called. If nil,
	// the command accepts no flags.
	Params func() any

	// Subcommands are nested commands dispatched by the first positional arg.
	Subcommands []*Command

	// Run executes the command with the remaining args (after flag parsing).
	// Exactly one of Run or Subcommands should be set. If both are set,
	// Run is used when no subcommand matches.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	// HelpOutput receives help text. Nil means os.Stderr. Subcommands
	// inherit their parent's.
	HelpOutput io.Writer

	// parent is set during dispatch to build the full command path for help.
	parent *Command
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// flagSet builds the command's flags from its params struct.
func (c *Command) flagSet() *pflag.FlagSet {
	if c.Params == nil {
		return nil
	}
	return FlagsFromParams(c.Name, c.Params())
}

// Execute parses args and dispatches to the appropriate subcommand or Run
// function. This is the main entry point for the command tree.
func (c *Command) Execute(ctx context.Context, args []string, logger *slog.Logger) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.helpOutput())
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name := args[0]
		for _, sub := range c.Subcommands {
			if sub.Name == name {
				sub.parent = c
				return sub.Execute(ctx, args[1:], logger)
			}
		}

		if c.Run == nil {
			suggestion := suggestCommand(name, c.Subcommands)
			if suggestion != "" {
				return Validation("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
					name, suggestion, c.fullName())
			}
			return Validation("unknown command %q\n\nRun '%s --help' for usage.",
				name, c.fullName())
		}
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(c.helpOutput())
		if len(args) == 0 {
			return Validation("subcommand required")
		}
		return Validation("subcommand required (got flag %q)", args[0])
	}

	if flagSet := c.flagSet(); flagSet != nil {
		// Suppress pflag's own error output and usage dump. We format
		// our own error messages with suggestions.
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			if err == pflag.ErrHelp {
				c.PrintHelp(c.helpOutput())
				return nil
			}
			errMsg := err.Error()
			if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
				// A fresh flag set: the failed parse may have consumed state.
				if suggestion := suggestFlag(args, c.flagSet()); suggestion != "" {
					return Validation("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
						errMsg, suggestion, c.fullName())
				}
			}
			return Validation("%s\n\nRun '%s --help' for usage.", errMsg, c.fullName())
		}
		args = flagSet.Args()
	}

	if c.Run != nil {
		return c.Run(ctx, args, logger.With("command", c.commandPath()))
	}

	c.PrintHelp(c.helpOutput())
	return fmt.Errorf("no action defined for %q", c.fullName())
}

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	if c.Usage != "" {
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	} else if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	} else {
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if flagSet := c.flagSet(); flagSet != nil {
		if usage := flagSet.FlagUsages(); usage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usage)
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

func (c *Command) helpOutput() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.HelpOutput != nil {
			return command.HelpOutput
		}
	}
	return os.Stderr
}

// fullName returns the complete command path (e.g., "dynenc create").
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

// commandPath is the command path without the root, joined by "/"
// (e.g., "create"), used to scope loggers.
func (c *Command) commandPath() string {
	if c.parent == nil {
		return c.Name
	}
	if c.parent.parent == nil {
		return c.Name
	}
	return c.parent.commandPath() + "/" + c.Name
}

// isHelpFlag returns true for common help flag variants.
func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
