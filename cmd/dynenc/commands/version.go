// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/digest"
	"github.com/bureau-foundation/dynenc/lib/dynenc"
	"github.com/bureau-foundation/dynenc/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

type versionInfo struct {
	Version      string   `json:"version"`
	Commit       string   `json:"commit"`
	Dirty        bool     `json:"dirty"`
	BuildTime    string   `json:"build_time"`
	ModuleFormat string   `json:"module_format"`
	Hashers      []string `json:"hashers"`
	Formats      []string `json:"formats"`
}

func versionCommand(app *App) *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			formats := make([]string, len(dynenc.Formats))
			for i, format := range dynenc.Formats {
				formats[i] = string(format)
			}
			commit, dirty := version.Commit()
			info := versionInfo{
				Version:      version.Version,
				Commit:       commit,
				Dirty:        dirty,
				BuildTime:    version.BuildTime,
				ModuleFormat: version.ModuleFormat,
				Hashers:      digest.Names(),
				Formats:      formats,
			}
			if done, err := params.EmitJSON(app.Stdout, info); done {
				return err
			}
			_, err := fmt.Fprintf(app.Stdout, "dynenc %s\n  Hashers: %s\n  Formats: %s\n",
				version.Full(), strings.Join(info.Hashers, ", "), strings.Join(formats, ", "))
			return err
		},
	}
}
