// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

type hashParams struct {
	configParams
	Hasher    string `json:"hasher"    flag:"hasher"    desc:"digest function (default from config)"`
	Canonical bool   `json:"canonical" flag:"canonical" desc:"print the canonical text instead of its digest"`
}

func hashCommand(app *App) *cli.Command {
	var params hashParams

	return &cli.Command{
		Name:    "hash",
		Summary: "Compute the digest of a definition file without packaging it",
		Description: `Compute the digest "dynenc create" would record for a definition file.
Use it to pin a digest from the source definition rather than from the
artifact. With --canonical, print the canonical text that is hashed.`,
		Usage:  "dynenc hash <definition> [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, 1, 1, "dynenc hash <definition> [flags]"); err != nil {
				return err
			}
			cfg, err := app.loadConfig(params.configParams)
			if err != nil {
				return err
			}
			hasher, _, err := lookupHasher(cfg, params.Hasher)
			if err != nil {
				return err
			}
			loaded, err := app.loadDefinition(args[0])
			if err != nil {
				return err
			}

			canonical, err := dynenc.Serialize(loaded.definition, loaded.dependencies)
			if err != nil {
				return cli.Validation("%s: %w", args[0], err)
			}
			if params.Canonical {
				_, err := io.WriteString(app.Stdout, canonical+"\n")
				return err
			}
			sum, err := dynenc.Hash(ctx, canonical, hasher)
			if err != nil {
				return cli.Internal("%w", err)
			}
			_, err = fmt.Fprintln(app.Stdout, sum)
			return err
		},
	}
}
