// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"context"
	"fmt"
	"slices"

	"github.com/bureau-foundation/dynenc/lib/digest"
)

// Load unpacks an artifact, binds it to the load-time dependencies and
// returns the encoder only if the canonical text of what was loaded
// hashes to expectedHash.
//
// The digest is recomputed from the module's own declarations and the
// load-time dependency map, using the hasher given by WithHasher (the
// same one Create used). Host dependencies contribute only their names,
// so a host implementation can be swapped at load time without changing
// the digest. Script dependencies are always taken from the load-time
// map and replace the copies embedded in the module, so swapping one
// changes the digest. A module that declares any function other than
// its capabilities and the load-time script dependencies is rejected.
//
// Verification happens before any module function runs. A mismatch
// returns *IntegrityError and no encoder.
func Load(ctx context.Context, artifact Artifact, expectedHash string, opts ...Option) (*Encoder, error) {
	o := collectOptions(opts)

	bindings, err := validateDependencies(Sorted(o.dependencies))
	if err != nil {
		return nil, err
	}
	forms, err := dependencyForms(bindings)
	if err != nil {
		return nil, err
	}

	module, err := Unpack(ctx, artifact)
	if err != nil {
		return nil, err
	}

	verified := make(map[string]bool)
	for _, capability := range capabilityNames {
		verified[capability] = true
	}
	for _, binding := range bindings {
		if kind, _ := classify(binding.Value); kind == kindScript {
			verified[binding.Name] = true
		}
	}
	for _, function := range module.Functions() {
		if !verified[function] {
			o.logger.Warn("encoder module rejected",
				"reason", "unverified function",
				"function", function,
				"expected", expectedHash,
			)
			return nil, &IntegrityError{
				Expected: expectedHash,
				Reason:   fmt.Sprintf("module declares function %q that the digest does not cover", function),
			}
		}
	}

	// The bind line is outside the canonical text, so its parameter
	// list must match the load-time names exactly.
	formals := module.Dependencies()
	if !slices.Equal(formals, bindingNames(bindings)) {
		return nil, &IntegrityError{
			Expected: expectedHash,
			Reason:   fmt.Sprintf("module binds dependencies %v, load supplied %v", formals, bindingNames(bindings)),
		}
	}

	var capabilities []namedForm
	for _, capability := range capabilityNames {
		decl := module.function(capability)
		if decl == nil {
			continue
		}
		form, err := canonicalFromDecl(decl)
		if err != nil {
			return nil, malformed(err, "declaration of %q", capability)
		}
		capabilities = append(capabilities, namedForm{name: capability, form: form})
	}

	canonical := canonicalText(capabilities, bindings, forms)
	actual, err := Hash(ctx, canonical, o.hasher)
	if err != nil {
		return nil, err
	}
	if !digest.Equal(actual, expectedHash) {
		o.logger.Warn("encoder module rejected",
			"reason", "hash mismatch",
			"expected", expectedHash,
			"actual", actual,
		)
		return nil, &IntegrityError{Expected: expectedHash, Actual: actual}
	}

	instance, err := module.Instantiate(ctx, bindings)
	if err != nil {
		return nil, err
	}
	for i, binding := range bindings {
		if kind, _ := classify(binding.Value); kind == kindScript {
			if err := instance.override(binding.Name, forms[i]); err != nil {
				return nil, err
			}
		}
	}
	if err := instance.check(ctx); err != nil {
		return nil, err
	}

	o.logger.Debug("encoder module verified",
		"name", module.Name(),
		"hash", actual,
		"ref", digest.ShortRef(actual),
		"capabilities", len(capabilities),
		"dependencies", len(bindings),
	)
	return newEncoder(module, instance, actual, capabilities, bindings), nil
}

func bindingNames(bindings []Binding) []string {
	names := make([]string, len(bindings))
	for i, binding := range bindings {
		names[i] = binding.Name
	}
	return names
}
