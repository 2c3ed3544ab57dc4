// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bureau-foundation/dynenc/lib/codec"
)

// Serialize returns the canonical text of an encoder definition and its
// dependencies. The text is a pure function of the definition's
// capability syntax and the dependency set: map order, source layout
// and comments do not affect it.
//
// Each entry is "<name>: <form>". Capabilities come first in the order
// encode, decode, preencode; dependencies follow sorted by name. A
// capability's form is its canonical declaration. A script dependency's
// form is its canonical declaration, a host dependency's form is
// "host", and a data dependency's form is "data" followed by the hex of
// its deterministic CBOR encoding. Entries are joined by newlines, so an
// empty definition with no dependencies serializes to "".
func Serialize(def Definition, deps Dependencies) (string, error) {
	bindings, err := validateDependencies(Sorted(deps))
	if err != nil {
		return "", err
	}
	capabilities, err := capabilityForms(def)
	if err != nil {
		return "", err
	}
	forms, err := dependencyForms(bindings)
	if err != nil {
		return "", err
	}
	return canonicalText(capabilities, bindings, forms), nil
}

// namedForm is one canonical entry.
type namedForm struct {
	name string
	form string
}

// capabilityForms canonicalizes the present capabilities in canonical
// order.
func capabilityForms(def Definition) ([]namedForm, error) {
	var forms []namedForm
	for _, capability := range capabilityNames {
		source := def.source(capability)
		if strings.TrimSpace(string(source)) == "" {
			continue
		}
		form, err := canonicalForm(capability, source)
		if err != nil {
			return nil, err
		}
		forms = append(forms, namedForm{name: capability, form: form})
	}
	return forms, nil
}

// dependencyForms returns the canonical form of each binding, indexed
// like bindings. Bindings must already be validated.
func dependencyForms(bindings []Binding) ([]string, error) {
	forms := make([]string, len(bindings))
	for i, binding := range bindings {
		kind, value := classify(binding.Value)
		switch kind {
		case kindScript:
			form, err := canonicalForm(binding.Name, value.(Source))
			if err != nil {
				return nil, err
			}
			forms[i] = form
		case kindHost:
			forms[i] = "host"
		default:
			encoded, err := codec.Marshal(value)
			if err != nil {
				return nil, &DependencyError{Name: binding.Name, Reason: fmt.Sprintf("data value cannot be encoded: %v", err)}
			}
			forms[i] = "data " + hex.EncodeToString(encoded)
		}
	}
	return forms, nil
}

func canonicalText(capabilities []namedForm, bindings []Binding, forms []string) string {
	entries := make([]string, 0, len(capabilities)+len(bindings))
	for _, capability := range capabilities {
		entries = append(entries, capability.name+": "+capability.form)
	}
	for i, binding := range bindings {
		entries = append(entries, binding.Name+": "+forms[i])
	}
	return strings.Join(entries, "\n")
}
