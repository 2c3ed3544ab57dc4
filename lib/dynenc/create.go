// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/dynenc/lib/digest"
)

// Created is the result of [Create].
type Created struct {
	// Artifact is the packaged module.
	Artifact Artifact

	// Hash is the digest of the canonical text. Distribute it through a
	// trusted channel; Load verifies against it.
	Hash string

	// Name is the encoder name recorded in the module, or "".
	Name string

	// Module is the parsed module, for inspection.
	Module *Module
}

// Create packages an encoder definition and its dependencies into an
// artifact and computes its digest.
func Create(ctx context.Context, def Definition, opts ...Option) (*Created, error) {
	o := collectOptions(opts)

	bindings, err := validateDependencies(Sorted(o.dependencies))
	if err != nil {
		return nil, err
	}
	capabilities, err := capabilityForms(def)
	if err != nil {
		return nil, err
	}
	forms, err := dependencyForms(bindings)
	if err != nil {
		return nil, err
	}

	canonical := canonicalText(capabilities, bindings, forms)
	sum, err := Hash(ctx, canonical, o.hasher)
	if err != nil {
		return nil, err
	}

	// Script dependencies are declared after the capabilities, in
	// binding order.
	decls := append([]namedForm(nil), capabilities...)
	for i, binding := range bindings {
		if kind, _ := classify(binding.Value); kind == kindScript {
			decls = append(decls, namedForm{name: binding.Name, form: forms[i]})
		}
	}

	name := o.name
	if name == "" {
		name = def.Name
	}
	text := renderModule(name, bindings, decls, sum)

	artifact, err := Pack(text, o.format)
	if err != nil {
		return nil, fmt.Errorf("packing module: %w", err)
	}
	module, err := parseModule(text)
	if err != nil {
		return nil, fmt.Errorf("generated module is invalid: %w", err)
	}

	o.logger.Debug("encoder module created",
		"name", name,
		"hash", sum,
		"ref", digest.ShortRef(sum),
		"format", o.format,
		"capabilities", len(capabilities),
		"dependencies", len(bindings),
		"artifact_bytes", len(artifact),
	)

	return &Created{Artifact: artifact, Hash: sum, Name: name, Module: module}, nil
}
