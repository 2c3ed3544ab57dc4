// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/digest"
	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

type inspectParams struct {
	configParams
	cli.JSONOutput
	Text bool `json:"text" flag:"text" desc:"print the module source instead of a summary"`
}

// inspectSummary is what inspect reports about an artifact. Nothing in
// it is verified.
type inspectSummary struct {
	Name          string   `json:"name,omitempty"`
	RecordHash    string   `json:"record_hash"`
	EmbeddedHash  string   `json:"embedded_hash"`
	Ref           string   `json:"ref"`
	Hasher        string   `json:"hasher"`
	Format        string   `json:"format"`
	Functions     []string `json:"functions"`
	Dependencies  []string `json:"dependencies"`
	ArtifactBytes int      `json:"artifact_bytes"`
	ModuleBytes   int      `json:"module_bytes"`
}

func inspectCommand(app *App) *cli.Command {
	var params inspectParams

	return &cli.Command{
		Name:    "inspect",
		Summary: "Show what a record's artifact contains, without verifying it",
		Description: `Unpack the artifact in a record and report its name, digests, format,
declared functions and dependency names. With --text, print the module
source.

Inspection does not verify the digest and runs no module code. Use
"dynenc verify" before trusting an artifact.`,
		Usage:  "dynenc inspect <record> [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, 1, 1, "dynenc inspect <record> [flags]"); err != nil {
				return err
			}
			cfg, err := app.loadConfig(params.configParams)
			if err != nil {
				return err
			}
			record, err := readRecord(cfg, args[0])
			if err != nil {
				return err
			}

			artifact := dynenc.Artifact(record.Artifact)
			if params.Text {
				text, err := dynenc.UnpackText(artifact)
				if err != nil {
					return cli.Integrity("%s: %w", args[0], err)
				}
				_, err = io.WriteString(app.Stdout, text)
				return err
			}

			module, err := dynenc.Unpack(ctx, artifact)
			if err != nil {
				return cli.Integrity("%s: %w", args[0], err)
			}
			format, _ := dynenc.FormatOf(artifact)
			summary := inspectSummary{
				Name:          module.Name(),
				RecordHash:    record.Hash,
				EmbeddedHash:  module.EmbeddedHash(),
				Ref:           digest.ShortRef(record.Hash),
				Hasher:        record.Hasher,
				Format:        string(format),
				Functions:     module.Functions(),
				Dependencies:  module.Dependencies(),
				ArtifactBytes: len(record.Artifact),
				ModuleBytes:   len(module.Text()),
			}
			if done, err := params.EmitJSON(app.Stdout, summary); done {
				return err
			}
			return printSummary(app.Stdout, summary)
		},
	}
}

func printSummary(w io.Writer, summary inspectSummary) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "name:\t%s\n", summary.Name)
	fmt.Fprintf(tw, "ref:\t%s\n", summary.Ref)
	fmt.Fprintf(tw, "record hash:\t%s\n", summary.RecordHash)
	fmt.Fprintf(tw, "embedded hash:\t%s\n", summary.EmbeddedHash)
	fmt.Fprintf(tw, "hasher:\t%s\n", summary.Hasher)
	fmt.Fprintf(tw, "format:\t%s\n", summary.Format)
	fmt.Fprintf(tw, "functions:\t%s\n", strings.Join(summary.Functions, ", "))
	fmt.Fprintf(tw, "dependencies:\t%s\n", strings.Join(summary.Dependencies, ", "))
	fmt.Fprintf(tw, "size:\t%d bytes (module %d bytes)\n", summary.ArtifactBytes, summary.ModuleBytes)
	if summary.RecordHash != summary.EmbeddedHash {
		fmt.Fprintf(tw, "warning:\trecord and embedded hashes differ\n")
	}
	return tw.Flush()
}
