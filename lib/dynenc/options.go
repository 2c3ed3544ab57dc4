// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"log/slog"

	"github.com/bureau-foundation/dynenc/lib/digest"
)

// Option configures [Create] and [Load].
type Option func(*options)

type options struct {
	name         string
	dependencies Dependencies
	hasher       digest.Hasher
	format       Format
	logger       *slog.Logger
}

func collectOptions(opts []Option) options {
	collected := options{
		hasher: digest.SHA256,
		format: FormatBase64,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&collected)
	}
	if collected.hasher == nil {
		collected.hasher = digest.SHA256
	}
	if collected.format == "" {
		collected.format = FormatBase64
	}
	if collected.logger == nil {
		collected.logger = slog.New(slog.DiscardHandler)
	}
	return collected
}

// WithName sets the encoder name recorded in a created module,
// overriding Definition.Name. Load ignores it.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDependencies supplies the dependency values. At creation they are
// compiled into the module; at load they are the values the module is
// bound to, and the digest is recomputed over them.
func WithDependencies(deps Dependencies) Option {
	return func(o *options) { o.dependencies = deps }
}

// WithHasher selects the hash function. The default is
// [digest.SHA256]. Load must use the hasher Create used.
func WithHasher(hasher digest.Hasher) Option {
	return func(o *options) { o.hasher = hasher }
}

// WithFormat selects the artifact format for Create. The default is
// [FormatBase64]. Load detects the format from the artifact.
func WithFormat(format Format) Option {
	return func(o *options) { o.format = format }
}

// WithLogger sets the logger for creation and verification events. The
// default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
