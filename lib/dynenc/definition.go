// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/interp"
)

// Source is the text of one shell function declaration, or of a bare
// command list that becomes the function's body. The empty Source means
// the capability is absent.
type Source string

// Capability names, in canonical order.
const (
	CapabilityEncode    = "encode"
	CapabilityDecode    = "decode"
	CapabilityPreencode = "preencode"
)

var capabilityNames = []string{CapabilityEncode, CapabilityDecode, CapabilityPreencode}

// Definition is an encoder before packaging. The package never mutates
// a Definition.
type Definition struct {
	// Name is the default encoder name, used when Create is not given
	// WithName.
	Name string

	Encode    Source
	Decode    Source
	Preencode Source
}

// source returns the Source of the named capability.
func (d Definition) source(capability string) Source {
	switch capability {
	case CapabilityEncode:
		return d.Encode
	case CapabilityDecode:
		return d.Decode
	case CapabilityPreencode:
		return d.Preencode
	default:
		return ""
	}
}

// Capabilities returns the names of the capabilities d provides, in
// canonical order.
func (d Definition) Capabilities() []string {
	var present []string
	for _, capability := range capabilityNames {
		if strings.TrimSpace(string(d.source(capability))) != "" {
			present = append(present, capability)
		}
	}
	return present
}

// HostFunc is a host-side function exposed to module code. Arguments
// arrive JSON-decoded; the result is JSON-encoded back to the module.
type HostFunc func(ctx context.Context, args []any) (any, error)

// HostObject exposes a set of host functions under one name. Module
// code calls them as "name method args...".
type HostObject map[string]HostFunc

// Dependencies maps names to the values module code can reach.
//
// A value is one of:
//   - [Source]: a script dependency, compiled into the module as a shell
//     function. Its canonical form is part of the digest.
//   - [HostFunc] or [HostObject]: a host dependency. Only its name is
//     part of the digest, so it can be replaced at load time.
//   - anything else: a data dependency, printed to module code as JSON.
//     Its deterministic CBOR encoding is part of the digest.
type Dependencies map[string]any

// Binding is one entry of the sorted dependency list.
type Binding struct {
	Name  string
	Value any
}

// Sorted returns deps as bindings ordered by name. The same order is used
// for the canonical text, the factory's formal parameters and the values
// passed at instantiation.
func Sorted(deps Dependencies) []Binding {
	bindings := make([]Binding, 0, len(deps))
	for name, value := range deps {
		bindings = append(bindings, Binding{Name: name, Value: value})
	}
	slices.SortFunc(bindings, func(a, b Binding) int {
		return strings.Compare(a.Name, b.Name)
	})
	return bindings
}

type dependencyKind int

const (
	kindData dependencyKind = iota
	kindHost
	kindScript
)

func (k dependencyKind) String() string {
	switch k {
	case kindHost:
		return "host"
	case kindScript:
		return "script"
	default:
		return "data"
	}
}

// classify reports the kind of a dependency value and normalizes
// untyped host functions to HostFunc.
func classify(value any) (dependencyKind, any) {
	switch typed := value.(type) {
	case Source:
		return kindScript, typed
	case HostFunc, HostObject:
		return kindHost, typed
	case func(context.Context, []any) (any, error):
		return kindHost, HostFunc(typed)
	case map[string]HostFunc:
		return kindHost, HostObject(typed)
	default:
		return kindData, value
	}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedNames cannot be used for dependencies: they are the fixed
// externals, the capability and module variable names, or shell words.
var reservedNames = map[string]bool{
	"cenc": true, "b4a": true,
	CapabilityEncode: true, CapabilityDecode: true, CapabilityPreencode: true,
	"name": true, "hash": true,

	"if": true, "then": true, "else": true, "elif": true, "fi": true,
	"for": true, "in": true, "do": true, "done": true, "case": true,
	"esac": true, "while": true, "until": true, "function": true,
	"select": true, "time": true, "coproc": true,
}

// validateDependencies checks every binding's name and value, returning
// the bindings with host functions normalized.
func validateDependencies(bindings []Binding) ([]Binding, error) {
	normalized := make([]Binding, len(bindings))
	for i, binding := range bindings {
		if err := validateDependencyName(binding.Name); err != nil {
			return nil, err
		}
		kind, value := classify(binding.Value)
		switch kind {
		case kindScript:
			if strings.TrimSpace(string(value.(Source))) == "" {
				return nil, &DependencyError{Name: binding.Name, Reason: "script dependency has empty source"}
			}
		case kindHost:
			if object, ok := value.(HostObject); ok {
				for method, function := range object {
					if method == "" || function == nil {
						return nil, &DependencyError{Name: binding.Name, Reason: fmt.Sprintf("host object method %q is empty", method)}
					}
				}
			} else if value.(HostFunc) == nil {
				return nil, &DependencyError{Name: binding.Name, Reason: "host function is nil"}
			}
		case kindData:
			if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
				return nil, &DependencyError{Name: binding.Name, Reason: fmt.Sprintf("unsupported function type %T (use HostFunc)", value)}
			}
		}
		normalized[i] = Binding{Name: binding.Name, Value: value}
	}
	return normalized, nil
}

func validateDependencyName(name string) error {
	switch {
	case !identifierPattern.MatchString(name):
		return &DependencyError{Name: name, Reason: "name is not a shell identifier"}
	case reservedNames[name], strings.HasPrefix(name, "dynenc_"):
		return &DependencyError{Name: name, Reason: "name is reserved"}
	case interp.IsBuiltin(name):
		return &DependencyError{Name: name, Reason: "name shadows a shell builtin"}
	}
	return nil
}
