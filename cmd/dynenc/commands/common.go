// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/config"
	"github.com/bureau-foundation/dynenc/lib/deffile"
	"github.com/bureau-foundation/dynenc/lib/digest"
	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

// configParams is embedded by every command that reads configuration.
type configParams struct {
	ConfigPath string `json:"config" flag:"config" desc:"config file (default: $DYNENC_CONFIG, else built-in defaults)"`
}

// loadConfig loads the config named by --config or DYNENC_CONFIG, or
// the defaults when neither is set, and applies its log level.
func (app *App) loadConfig(params configParams) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case params.ConfigPath != "":
		cfg, err = config.LoadFile(params.ConfigPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NotFound("loading config: %w", err)
		}
		return nil, cli.Validation("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid config: %w", err)
	}

	level, _ := cfg.LogLevel()
	app.Level.Set(level)
	return cfg, nil
}

// lookupHasher resolves a hasher name, falling back to the config.
func lookupHasher(cfg *config.Config, name string) (digest.Hasher, string, error) {
	if name == "" {
		name = cfg.Encoder.Hasher
	}
	hasher, err := digest.Lookup(name)
	if err != nil {
		return nil, "", cli.Validation("%w", err)
	}
	return hasher, name, nil
}

// definition is a resolved definition file.
type definition struct {
	path         string
	definition   dynenc.Definition
	dependencies dynenc.Dependencies
}

// loadDefinition reads a definition file and resolves its host
// dependencies against app.Hosts. An unnamed definition takes its name
// from the file name.
func (app *App) loadDefinition(path string) (*definition, error) {
	file, err := deffile.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NotFound("%w", err)
		}
		return nil, cli.Validation("%w", err)
	}
	def, deps, err := deffile.Resolve(file, app.Hosts)
	if err != nil {
		return nil, cli.Validation("%s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = deffile.NameFromPath(path)
	}
	return &definition{path: path, definition: def, dependencies: deps}, nil
}

// dependenciesFrom returns the dependencies of the definition at path,
// or nil when path is empty.
func (app *App) dependenciesFrom(path string) (dynenc.Dependencies, error) {
	if path == "" {
		return nil, nil
	}
	loaded, err := app.loadDefinition(path)
	if err != nil {
		return nil, err
	}
	return loaded.dependencies, nil
}

// readRecord reads a record, resolving relative paths against the
// configured artifact directory.
func readRecord(cfg *config.Config, path string) (*Record, error) {
	record, err := ReadRecord(cfg.ArtifactPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NotFound("%w", err)
		}
		return nil, cli.Validation("%w", err)
	}
	return record, nil
}

// loaded is a verified encoder and the record it came from.
type loaded struct {
	record  *Record
	encoder *dynenc.Encoder
}

// loadEncoder reads the record at recordPath and loads its artifact
// against expectedHash (the record's own hash when empty), with the
// dependencies of the definition at definitionPath. The encoder runs
// under ctx.
func (app *App) loadEncoder(ctx context.Context, cfg *config.Config, recordPath, definitionPath, expectedHash string, logger *slog.Logger) (*loaded, error) {
	record, err := readRecord(cfg, recordPath)
	if err != nil {
		return nil, err
	}

	hasher, _, err := lookupHasher(cfg, record.Hasher)
	if err != nil {
		return nil, err
	}
	deps, err := app.dependenciesFrom(definitionPath)
	if err != nil {
		return nil, err
	}
	if expectedHash == "" {
		expectedHash = record.Hash
	} else if _, err := digest.ParseDigest(expectedHash); err != nil {
		// Built-in hashers all produce 32-byte hex digests.
		return nil, cli.Validation("--hash: %w", err)
	}

	encoder, err := dynenc.Load(ctx, dynenc.Artifact(record.Artifact), expectedHash,
		dynenc.WithHasher(hasher),
		dynenc.WithDependencies(deps),
		dynenc.WithLogger(logger),
	)
	if err != nil {
		return nil, classifyLoadError(recordPath, err)
	}
	return &loaded{record: record, encoder: encoder.WithContext(ctx)}, nil
}

// classifyLoadError maps dynenc errors to CLI error categories.
func classifyLoadError(path string, err error) error {
	switch {
	case errors.Is(err, dynenc.ErrIntegrity), errors.Is(err, dynenc.ErrMalformedArtifact):
		return cli.Integrity("%s: %w", path, err)
	case errors.Is(err, dynenc.ErrInvalidDependency), errors.Is(err, dynenc.ErrInvalidSource):
		return cli.Validation("%s: %w", path, err)
	default:
		return cli.Internal("%s: %w", path, err)
	}
}

// requireArgs checks the positional argument count.
func requireArgs(args []string, minArgs, maxArgs int, usage string) error {
	if len(args) < minArgs || len(args) > maxArgs {
		return cli.Validation("usage: %s", usage)
	}
	return nil
}
