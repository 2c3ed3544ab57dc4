// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/digest"
)

type verifyParams struct {
	configParams
	cli.JSONOutput
	Definition string `json:"definition" flag:"definition,d" desc:"definition file supplying the load-time dependencies"`
	Hash       string `json:"hash"       flag:"hash"         desc:"expected digest (default: the record's own)"`
}

// verifyResult is the --json output of verify.
type verifyResult struct {
	Verified bool   `json:"verified"`
	Name     string `json:"name,omitempty"`
	Hash     string `json:"hash,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Error    string `json:"error,omitempty"`
}

func verifyCommand(app *App) *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check that a record's artifact hashes to the expected digest",
		Description: `Load the artifact in a record with the dependencies of a definition
file and check its digest. The expected digest is the record's own, or
--hash to check against a digest obtained elsewhere.

Prints "OK" or "FAILED" with the reason. Exits 3 when verification
fails.`,
		Usage:  "dynenc verify <record> [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Verify against a pinned digest",
				Command:     "dynenc verify prefixed.json -d prefixed.yaml --hash 5f2c...",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, 1, 1, "dynenc verify <record> [flags]"); err != nil {
				return err
			}
			cfg, err := app.loadConfig(params.configParams)
			if err != nil {
				return err
			}

			result, err := app.loadEncoder(ctx, cfg, args[0], params.Definition, params.Hash, logger)
			var toolErr *cli.ToolError
			if err != nil && (!errors.As(err, &toolErr) || toolErr.Category != cli.CategoryIntegrity) {
				return err
			}

			if err != nil {
				if done, emitErr := params.EmitJSON(app.Stdout, verifyResult{Hash: params.Hash, Error: err.Error()}); done {
					if emitErr != nil {
						return emitErr
					}
					return &cli.ExitError{Code: toolErr.ExitCode()}
				}
				fmt.Fprintf(app.Stdout, "FAILED %s\n", err)
				return &cli.ExitError{Code: toolErr.ExitCode()}
			}

			encoder := result.encoder
			summary := verifyResult{
				Verified: true,
				Name:     encoder.Name(),
				Hash:     encoder.Hash(),
				Ref:      digest.ShortRef(encoder.Hash()),
			}
			if done, err := params.EmitJSON(app.Stdout, summary); done {
				return err
			}
			_, err = fmt.Fprintf(app.Stdout, "OK %s %s\n", summary.Ref, summary.Hash)
			return err
		},
	}
}
