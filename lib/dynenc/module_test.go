// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestRenderModuleParses(t *testing.T) {
	bindings := []Binding{{Name: "dep", Value: 1}, {Name: "helper", Value: Source("echo hi")}}
	decls := []namedForm{
		{name: "encode", form: "encode() {\n\tcenc json encode \"$1\"\n}"},
		{name: "helper", form: "helper() {\n\techo hi\n}"},
	}
	text := renderModule("it's mine", bindings, decls, "f00d")

	module, err := parseModule(text)
	if err != nil {
		t.Fatalf("parseModule: %v\n%s", err, text)
	}
	if module.Name() != "it's mine" {
		t.Errorf("Name = %q, want %q", module.Name(), "it's mine")
	}
	if module.EmbeddedHash() != "f00d" {
		t.Errorf("EmbeddedHash = %q", module.EmbeddedHash())
	}
	if !slices.Equal(module.Dependencies(), []string{"dep", "helper"}) {
		t.Errorf("Dependencies = %v", module.Dependencies())
	}
	if !slices.Equal(module.Functions(), []string{"encode", "helper"}) {
		t.Errorf("Functions = %v", module.Functions())
	}
	if module.Text() != text {
		t.Error("Text does not return the module source")
	}
}

func TestRenderModuleWithoutName(t *testing.T) {
	module, err := parseModule(renderModule("", nil, nil, "abc"))
	if err != nil {
		t.Fatalf("parseModule: %v", err)
	}
	if module.Name() != "" || module.EmbeddedHash() != "abc" || len(module.Dependencies()) != 0 {
		t.Errorf("unexpected module: name %q hash %q deps %v", module.Name(), module.EmbeddedHash(), module.Dependencies())
	}
}

func TestParseModuleRejects(t *testing.T) {
	const bind = "dynenc_bind cenc b4a -- \"$@\"\n"
	const header = "# dynenc module v1\n"
	tests := []struct {
		name string
		text string
	}{
		{"missing header", "dynenc_factory() {\n" + bind + "hash='x'\n}\n"},
		{"future version", "# dynenc module v2\ndynenc_factory() {\n" + bind + "hash='x'\n}\n"},
		{"not shell", header + "dynenc_factory() {\n"},
		{"extra top-level command", header + "dynenc_factory() {\n" + bind + "hash='x'\n}\necho pwned\n"},
		{"wrong factory", header + "factory() {\n" + bind + "hash='x'\n}\n"},
		{"subshell factory", header + "dynenc_factory() (\n" + bind + "hash='x'\n)\n"},
		{"missing bind", header + "dynenc_factory() {\nhash='x'\n}\n"},
		{"bind without cenc", header + "dynenc_factory() {\ndynenc_bind b4a cenc -- \"$@\"\nhash='x'\n}\n"},
		{"bind without spread", header + "dynenc_factory() {\ndynenc_bind cenc b4a -- 0 1\nhash='x'\n}\n"},
		{"bind reserved name", header + "dynenc_factory() {\ndynenc_bind cenc b4a echo -- \"$@\"\nhash='x'\n}\n"},
		{"command in factory", header + "dynenc_factory() {\n" + bind + "echo pwned\nhash='x'\n}\n"},
		{"missing hash", header + "dynenc_factory() {\n" + bind + "}\n"},
		{"expanded hash", header + "dynenc_factory() {\n" + bind + "hash=$(echo x)\n}\n"},
		{"duplicate function", header + "dynenc_factory() {\n" + bind + "encode() { :; }\nencode() { :; }\nhash='x'\n}\n"},
		{"reserved function", header + "dynenc_factory() {\n" + bind + "dynenc_bind() { :; }\nhash='x'\n}\n"},
		{"backgrounded function", header + "dynenc_factory() {\n" + bind + "encode() { :; } &\nhash='x'\n}\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseModule(test.text)
			if got := matchedSentinels(err); len(got) != 1 || got[0] != ErrMalformedArtifact {
				t.Errorf("parseModule error = %v matches %v, want only ErrMalformedArtifact", err, got)
			}
		})
	}
}

func TestUnpackEvaluatesModule(t *testing.T) {
	artifact, err := Pack(renderModule("x", nil, nil, "abc"), FormatZstd)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	module, err := Unpack(context.Background(), artifact)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if module.Name() != "x" {
		t.Errorf("Name = %q", module.Name())
	}
}

func TestInstantiateChecksArity(t *testing.T) {
	bindings := []Binding{{Name: "dep", Value: 1}}
	module, err := parseModule(renderModule("", bindings, nil, "abc"))
	if err != nil {
		t.Fatalf("parseModule: %v", err)
	}

	if _, err := module.Instantiate(context.Background(), bindings); err != nil {
		t.Fatalf("Instantiate with matching bindings: %v", err)
	}

	_, err = module.Instantiate(context.Background(), nil)
	if !errors.Is(err, ErrBinding) {
		t.Errorf("Instantiate with missing binding: error = %v, want ErrBinding", err)
	}
	_, err = module.Instantiate(context.Background(), append(bindings, Binding{Name: "extra", Value: 2}))
	if !errors.Is(err, ErrBinding) {
		t.Errorf("Instantiate with extra binding: error = %v, want ErrBinding", err)
	}
}

func TestLiteralWord(t *testing.T) {
	for _, value := range []string{"plain", "it's", "''", "with space", "back\\slash", "line\nbreak"} {
		text := renderModule(value, nil, nil, "h")
		module, err := parseModule(text)
		if err != nil {
			t.Fatalf("parseModule(name %q): %v", value, err)
		}
		if module.Name() != value {
			t.Errorf("name roundtrip: got %q, want %q", module.Name(), value)
		}
	}
}

func TestShellQuote(t *testing.T) {
	if got := shellQuote("it's"); got != `'it'\''s'` {
		t.Errorf("shellQuote = %s", got)
	}
	if !strings.HasPrefix(shellQuote(""), "'") {
		t.Error("shellQuote of empty string is not quoted")
	}
}
