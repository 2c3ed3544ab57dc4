// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/digest"
	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

type createParams struct {
	configParams
	cli.JSONOutput
	Output string `json:"output" flag:"output,o" desc:"write the record to this file (.cbor for CBOR, otherwise JSON)"`
	Hasher string `json:"hasher" flag:"hasher" desc:"digest function (default from config)"`
	Format string `json:"format" flag:"format" desc:"artifact format: base64, zstd or lz4 (default from config)"`
	Name   string `json:"name"   flag:"name"   desc:"encoder name (default: the definition's name, else the file name)"`
}

func createCommand(app *App) *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Package a definition file into an artifact record",
		Description: `Read an encoder definition (YAML, or JSONC for .json/.jsonc files),
package it into a module artifact, and compute its digest.

The record holds the artifact, the digest and the hasher name. Without
--output the record is printed as JSON. Host dependencies named in the
definition must be built-in host implementations.`,
		Usage:  "dynenc create <definition> [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Create a compressed record",
				Command:     "dynenc create prefixed.yaml --format zstd -o prefixed.json",
			},
			{
				Description: "Create a CBOR record hashed with BLAKE3",
				Command:     "dynenc create prefixed.yaml --hasher blake3 -o prefixed.cbor",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, 1, 1, "dynenc create <definition> [flags]"); err != nil {
				return err
			}
			cfg, err := app.loadConfig(params.configParams)
			if err != nil {
				return err
			}
			hasher, hasherName, err := lookupHasher(cfg, params.Hasher)
			if err != nil {
				return err
			}
			formatName := params.Format
			if formatName == "" {
				formatName = cfg.Encoder.Format
			}
			format, err := dynenc.ParseFormat(formatName)
			if err != nil {
				return cli.Validation("%w", err)
			}
			loaded, err := app.loadDefinition(args[0])
			if err != nil {
				return err
			}

			created, err := dynenc.Create(ctx, loaded.definition,
				dynenc.WithName(params.Name),
				dynenc.WithDependencies(loaded.dependencies),
				dynenc.WithHasher(hasher),
				dynenc.WithFormat(format),
				dynenc.WithLogger(logger),
			)
			if err != nil {
				return cli.Validation("%s: %w", args[0], err)
			}

			record := &Record{
				Name:     created.Name,
				Hash:     created.Hash,
				Hasher:   hasherName,
				Format:   string(format),
				Artifact: string(created.Artifact),
			}
			if params.Output == "" {
				return cli.WriteJSON(app.Stdout, record)
			}

			path := cfg.ArtifactPath(params.Output)
			if err := WriteRecord(record, path); err != nil {
				return cli.Internal("%w", err)
			}
			logger.Info("encoder record written",
				"path", path,
				"name", created.Name,
				"hash", created.Hash,
			)
			if done, err := params.EmitJSON(app.Stdout, record); done {
				return err
			}
			_, err = fmt.Fprintf(app.Stdout, "%s %s %s\n", digest.ShortRef(created.Hash), created.Hash, path)
			return err
		},
	}
}
