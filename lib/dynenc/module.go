// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"context"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Module text layout. A module is one factory function: its body binds
// the fixed externals and dependencies, declares the capabilities and
// script dependencies, and records the encoder name and digest.
//
//	# dynenc module v1
//	dynenc_factory() {
//	dynenc_bind cenc b4a <dependency names...> -- "$@"
//	<canonical declarations...>
//	name='<name>'
//	hash='<digest>'
//	}
const (
	moduleHeader = "# dynenc module v1"
	factoryName  = "dynenc_factory"
	bindCommand  = "dynenc_bind"
)

// Module is a parsed, structurally verified module. A Module is
// immutable and safe for concurrent use; running its code needs an
// [Instance].
type Module struct {
	text string
	file *syntax.File

	// formals are the names dynenc_bind binds, starting with cenc and
	// b4a.
	formals []string

	// functions are the module's declarations in module order.
	functions []*syntax.FuncDecl

	name string
	hash string
}

// Text returns the module source.
func (m *Module) Text() string { return m.text }

// Name returns the encoder name recorded in the module, or "".
func (m *Module) Name() string { return m.name }

// EmbeddedHash returns the digest recorded in the module. It is not
// trusted: [Load] verifies a caller-supplied digest instead.
func (m *Module) EmbeddedHash() string { return m.hash }

// Dependencies returns the dependency names the factory binds, in
// binding order.
func (m *Module) Dependencies() []string {
	return append([]string(nil), m.formals[2:]...)
}

// Functions returns the names of the functions the module declares.
func (m *Module) Functions() []string {
	names := make([]string, len(m.functions))
	for i, decl := range m.functions {
		names[i] = decl.Name.Value
	}
	return names
}

// function returns the declaration of name, or nil.
func (m *Module) function(name string) *syntax.FuncDecl {
	for _, decl := range m.functions {
		if decl.Name.Value == name {
			return decl
		}
	}
	return nil
}

// Unpack decodes an artifact, verifies that it has the module layout,
// and evaluates it once in an isolated runner. Every failure is a
// *MalformedArtifactError. Unpack does not verify integrity; use [Load].
func Unpack(ctx context.Context, artifact Artifact) (*Module, error) {
	text, err := UnpackText(artifact)
	if err != nil {
		return nil, err
	}
	module, err := parseModule(text)
	if err != nil {
		return nil, err
	}
	if err := module.evaluate(ctx); err != nil {
		return nil, err
	}
	return module, nil
}

// renderModule writes the module text for the given declarations.
func renderModule(name string, bindings []Binding, decls []namedForm, hash string) string {
	var builder strings.Builder
	builder.WriteString(moduleHeader + "\n")
	builder.WriteString(factoryName + "() {\n")
	builder.WriteString(bindCommand + " cenc b4a")
	for _, binding := range bindings {
		builder.WriteString(" " + binding.Name)
	}
	builder.WriteString(" -- \"$@\"\n")
	for _, decl := range decls {
		builder.WriteString(decl.form + "\n")
	}
	if name != "" {
		builder.WriteString("name=" + shellQuote(name) + "\n")
	}
	builder.WriteString("hash=" + shellQuote(hash) + "\n")
	builder.WriteString("}\n")
	return builder.String()
}

// parseModule parses module text and checks its layout.
func parseModule(text string) (*Module, error) {
	if !strings.HasPrefix(text, moduleHeader+"\n") {
		if strings.HasPrefix(text, "# dynenc module ") {
			version, _, _ := strings.Cut(strings.TrimPrefix(text, "# dynenc module "), "\n")
			return nil, malformed(nil, "unsupported module version %q", version)
		}
		return nil, malformed(nil, "missing module header")
	}

	file, err := newParser().Parse(strings.NewReader(text), "module")
	if err != nil {
		return nil, malformed(err, "module does not parse")
	}

	if len(file.Stmts) != 1 {
		return nil, malformed(nil, "module has %d top-level commands, want 1", len(file.Stmts))
	}
	factory, ok := file.Stmts[0].Cmd.(*syntax.FuncDecl)
	if !ok || !plainStatement(file.Stmts[0]) || factory.Name.Value != factoryName {
		return nil, malformed(nil, "module does not declare %s", factoryName)
	}
	block, ok := factory.Body.Cmd.(*syntax.Block)
	if !ok || !plainStatement(factory.Body) {
		return nil, malformed(nil, "%s body is not a brace group", factoryName)
	}
	if len(block.Stmts) == 0 {
		return nil, malformed(nil, "%s is empty", factoryName)
	}

	module := &Module{text: text, file: file}
	module.formals, err = parseBind(block.Stmts[0])
	if err != nil {
		return nil, err
	}

	rest := block.Stmts[1:]
	declared := make(map[string]bool)
	for len(rest) > 0 {
		decl, ok := rest[0].Cmd.(*syntax.FuncDecl)
		if !ok {
			break
		}
		name := decl.Name.Value
		switch {
		case !plainStatement(rest[0]):
			return nil, malformed(nil, "declaration of %q has redirects, negation or backgrounding", name)
		case declared[name]:
			return nil, malformed(nil, "function %q declared twice", name)
		case strings.HasPrefix(name, "dynenc_"):
			return nil, malformed(nil, "function %q uses the reserved dynenc_ prefix", name)
		}
		declared[name] = true
		module.functions = append(module.functions, decl)
		rest = rest[1:]
	}

	if len(rest) == 2 {
		variable, value, err := parseAssignment(rest[0])
		if err != nil {
			return nil, err
		}
		if variable != "name" {
			return nil, malformed(nil, "unexpected assignment to %q", variable)
		}
		module.name = value
		rest = rest[1:]
	}
	if len(rest) != 1 {
		return nil, malformed(nil, "%s must end with the name and hash assignments", factoryName)
	}
	variable, value, err := parseAssignment(rest[0])
	if err != nil {
		return nil, err
	}
	if variable != "hash" {
		return nil, malformed(nil, "%s must end with the hash assignment", factoryName)
	}
	module.hash = value
	return module, nil
}

// parseBind checks the dynenc_bind prologue and returns its formal
// names.
func parseBind(stmt *syntax.Stmt) ([]string, error) {
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || !plainStatement(stmt) || len(call.Assigns) != 0 || len(call.Args) == 0 || call.Args[0].Lit() != bindCommand {
		return nil, malformed(nil, "%s does not start with %s", factoryName, bindCommand)
	}

	var formals []string
	seen := make(map[string]bool)
	args := call.Args[1:]
	for len(args) > 0 && args[0].Lit() != "--" {
		formal := args[0].Lit()
		if !identifierPattern.MatchString(formal) || seen[formal] {
			return nil, malformed(nil, "%s has an invalid or repeated parameter", bindCommand)
		}
		seen[formal] = true
		formals = append(formals, formal)
		args = args[1:]
	}
	if len(args) != 2 {
		return nil, malformed(nil, "%s must end with -- \"$@\"", bindCommand)
	}
	if spread, err := printNode(args[1]); err != nil || spread != `"$@"` {
		return nil, malformed(nil, "%s must end with -- \"$@\"", bindCommand)
	}
	if len(formals) < 2 || formals[0] != "cenc" || formals[1] != "b4a" {
		return nil, malformed(nil, "%s must bind cenc and b4a first", bindCommand)
	}
	for _, formal := range formals[2:] {
		if err := validateDependencyName(formal); err != nil {
			return nil, malformed(err, "%s parameter %q", bindCommand, formal)
		}
	}
	return formals, nil
}

// parseAssignment checks a plain "variable=literal" statement.
func parseAssignment(stmt *syntax.Stmt) (string, string, error) {
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || !plainStatement(stmt) || len(call.Args) != 0 || len(call.Assigns) != 1 {
		return "", "", malformed(nil, "unexpected command in %s", factoryName)
	}
	assign := call.Assigns[0]
	if assign.Append || assign.Naked || assign.Index != nil || assign.Array != nil || assign.Value == nil {
		return "", "", malformed(nil, "assignment to %q is not a plain string", assign.Name.Value)
	}
	value, ok := literalWord(assign.Value)
	if !ok {
		return "", "", malformed(nil, "assignment to %q is not a literal", assign.Name.Value)
	}
	return assign.Name.Value, value, nil
}

// literalWord returns the value of a word made only of unquoted and
// single-quoted literal text.
func literalWord(word *syntax.Word) (string, bool) {
	var builder strings.Builder
	for _, part := range word.Parts {
		switch typed := part.(type) {
		case *syntax.Lit:
			builder.WriteString(unescapeLiteral(typed.Value))
		case *syntax.SglQuoted:
			if typed.Dollar {
				return "", false
			}
			builder.WriteString(typed.Value)
		default:
			return "", false
		}
	}
	return builder.String(), true
}

func unescapeLiteral(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var builder strings.Builder
	escaped := false
	for _, r := range raw {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		builder.WriteRune(r)
	}
	return builder.String()
}

// shellQuote single-quotes s for the shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// evaluate runs the module text once with no bindings, to confirm it
// defines the factory without side effects.
func (m *Module) evaluate(ctx context.Context) error {
	runner, err := newRunner(func(ctx context.Context, args []string) error {
		return fmt.Errorf("module code ran %q while loading", args[0])
	}, nil, nil)
	if err != nil {
		return malformed(err, "cannot create interpreter")
	}
	if err := runner.Run(ctx, m.file); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("evaluating module: %w", ctxErr)
		}
		return malformed(err, "module evaluation failed")
	}
	return nil
}
