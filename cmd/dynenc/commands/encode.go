// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/codec"
	"github.com/bureau-foundation/dynenc/lib/compact"
)

type codecParams struct {
	configParams
	Definition string `json:"definition" flag:"definition,d" desc:"definition file supplying the load-time dependencies"`
	Hash       string `json:"hash"       flag:"hash"         desc:"expected digest (default: the record's own)"`
}

func encodeCommand(app *App) *cli.Command {
	var params codecParams

	return &cli.Command{
		Name:    "encode",
		Summary: "Encode a JSON value with a verified encoder",
		Description: `Load and verify the encoder in a record, then encode a JSON value with
it and print the encoding as hex. The value is read from standard input
when it is omitted or "-".`,
		Usage:  "dynenc encode <record> [value] [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Encode a string",
				Command:     `dynenc encode prefixed.json '"hello"' -d prefixed.yaml`,
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, 1, 2, "dynenc encode <record> [value] [flags]"); err != nil {
				return err
			}
			cfg, err := app.loadConfig(params.configParams)
			if err != nil {
				return err
			}

			input := "-"
			if len(args) == 2 {
				input = args[1]
			}
			if input == "-" {
				data, err := io.ReadAll(app.Stdin)
				if err != nil {
					return cli.Internal("reading value: %w", err)
				}
				input = string(data)
			}
			value, err := codec.FromJSON([]byte(strings.TrimSpace(input)))
			if err != nil {
				return cli.Validation("value is not JSON: %w", err)
			}

			result, err := app.loadEncoder(ctx, cfg, args[0], params.Definition, params.Hash, logger)
			if err != nil {
				return err
			}
			encoded, err := compact.Encode(result.encoder, value)
			if err != nil {
				return cli.Internal("encoding: %w", err)
			}
			logger.Debug("value encoded", "hash", result.encoder.Hash(), "bytes", len(encoded))
			_, err = fmt.Fprintln(app.Stdout, hex.EncodeToString(encoded))
			return err
		},
	}
}

func decodeCommand(app *App) *cli.Command {
	var params codecParams

	return &cli.Command{
		Name:    "decode",
		Summary: "Decode hex bytes with a verified encoder",
		Description: `Load and verify the encoder in a record, then decode hex-encoded bytes
with it and print the value as JSON.`,
		Usage:  "dynenc decode <record> <hex> [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, 2, 2, "dynenc decode <record> <hex> [flags]"); err != nil {
				return err
			}
			cfg, err := app.loadConfig(params.configParams)
			if err != nil {
				return err
			}
			buffer, err := hex.DecodeString(strings.TrimSpace(args[1]))
			if err != nil {
				return cli.Validation("input is not hex: %w", err)
			}

			result, err := app.loadEncoder(ctx, cfg, args[0], params.Definition, params.Hash, logger)
			if err != nil {
				return err
			}
			value, err := compact.Decode(result.encoder, buffer)
			if err != nil {
				return cli.Internal("decoding: %w", err)
			}
			data, err := json.Marshal(value)
			if err != nil {
				return cli.Internal("encoding result: %w", err)
			}
			_, err = fmt.Fprintln(app.Stdout, string(data))
			return err
		},
	}
}
