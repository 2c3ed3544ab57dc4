// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package deffile reads encoder definitions authored on disk. A
// definition file names the encoder, gives the source of each
// capability, and declares its dependencies:
//
//	name: prefixed-string
//	encode: cenc string encode "$1"
//	preencode: cenc string preencode "$1"
//	decode: dep process "$(cenc string decode)"
//	dependencies:
//	  dep:
//	    host: prefix
//	  limit:
//	    value: 3
//	  helper:
//	    script: helper() { echo "$1"; }
//
// Files ending in .json or .jsonc are JSONC (JSON with comments and
// trailing commas); everything else is YAML. Host dependencies name an
// implementation the caller supplies to [Resolve], since Go functions
// cannot be written in a file.
package deffile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/dynenc/lib/codec"
	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

// File is a parsed definition file.
type File struct {
	Name         string                `json:"name,omitempty" yaml:"name,omitempty"`
	Encode       string                `json:"encode,omitempty" yaml:"encode,omitempty"`
	Decode       string                `json:"decode,omitempty" yaml:"decode,omitempty"`
	Preencode    string                `json:"preencode,omitempty" yaml:"preencode,omitempty"`
	Dependencies map[string]Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Dependency declares one dependency. Exactly one field is set.
type Dependency struct {
	// Script is the source of a script dependency.
	Script string `json:"script,omitempty" yaml:"script,omitempty"`

	// Value is a data dependency. Numbers decode as int64 or float64
	// in both formats, so a value hashes the same from YAML and JSON.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Host names a host implementation supplied to Resolve.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
}

// Format is a definition file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatJSONC
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Parse parses definition file contents. Unknown fields are errors.
func Parse(data []byte, format Format) (*File, error) {
	var file File
	switch format {
	case FormatJSONC:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber()
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&file); err != nil {
			return nil, fmt.Errorf("parsing definition: %w", err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing definition: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown definition format %d", format)
	}
	if err := normalizeValues(&file); err != nil {
		return nil, fmt.Errorf("parsing definition: %w", err)
	}
	return &file, nil
}

// normalizeValues rewrites data values through JSON so that numbers
// are int64 or float64 and maps are map[string]any whichever format
// they came from.
func normalizeValues(file *File) error {
	for name, dependency := range file.Dependencies {
		if dependency.Value == nil {
			continue
		}
		raw, err := json.Marshal(dependency.Value)
		if err != nil {
			return fmt.Errorf("dependency %q: %w", name, err)
		}
		dependency.Value, err = codec.FromJSON(raw)
		if err != nil {
			return fmt.Errorf("dependency %q: %w", name, err)
		}
		file.Dependencies[name] = dependency
	}
	return nil
}

// ReadFile reads and parses a definition file, choosing the format
// from its extension.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	file, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// NameFromPath derives an encoder name from a file path by stripping
// the directory and extension: "codecs/prefixed.yaml" is "prefixed".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Validate checks a File for structural issues, returning one
// human-readable description per issue. Source syntax is not checked
// here; [dynenc.Create] reports it.
func Validate(file *File) []string {
	var issues []string
	for _, name := range dependencyNames(file) {
		dependency := file.Dependencies[name]
		set := 0
		if dependency.Script != "" {
			set++
		}
		if dependency.Value != nil {
			set++
		}
		if dependency.Host != "" {
			set++
		}
		if set != 1 {
			issues = append(issues, fmt.Sprintf("dependencies.%s: exactly one of script, value or host must be set", name))
		}
	}
	return issues
}

// Resolve turns a File into a definition and its dependency map. Host
// dependencies are looked up in hosts, whose values are a
// [dynenc.HostFunc] or [dynenc.HostObject].
func Resolve(file *File, hosts map[string]any) (dynenc.Definition, dynenc.Dependencies, error) {
	if issues := Validate(file); len(issues) > 0 {
		return dynenc.Definition{}, nil, fmt.Errorf("invalid definition: %s", strings.Join(issues, "; "))
	}

	definition := dynenc.Definition{
		Name:      file.Name,
		Encode:    dynenc.Source(file.Encode),
		Decode:    dynenc.Source(file.Decode),
		Preencode: dynenc.Source(file.Preencode),
	}
	if len(file.Dependencies) == 0 {
		return definition, nil, nil
	}

	dependencies := make(dynenc.Dependencies, len(file.Dependencies))
	for _, name := range dependencyNames(file) {
		dependency := file.Dependencies[name]
		switch {
		case dependency.Script != "":
			dependencies[name] = dynenc.Source(dependency.Script)
		case dependency.Host != "":
			implementation, ok := hosts[dependency.Host]
			if !ok {
				return dynenc.Definition{}, nil, fmt.Errorf("dependency %q: unknown host implementation %q", name, dependency.Host)
			}
			dependencies[name] = implementation
		default:
			dependencies[name] = dependency.Value
		}
	}
	return definition, dependencies, nil
}

func dependencyNames(file *File) []string {
	names := make([]string, 0, len(file.Dependencies))
	for name := range file.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
