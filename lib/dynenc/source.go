// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// newParser returns a parser for module code. Parsers are not safe for
// concurrent use, so each parse gets its own.
func newParser() *syntax.Parser {
	return syntax.NewParser(syntax.Variant(syntax.LangBash))
}

// printNode prints node in the printer's default layout.
func printNode(node syntax.Node) (string, error) {
	var buffer bytes.Buffer
	if err := syntax.NewPrinter().Print(&buffer, node); err != nil {
		return "", err
	}
	return strings.TrimSpace(buffer.String()), nil
}

// canonicalForm returns the canonical declaration of the function name
// from its source. Both declaration spellings ("name() body" and
// "function name body") and a bare command list produce the same shape,
// "name() body". Comments and layout do not survive; the body's
// construct (brace group, subshell, and so on) does.
func canonicalForm(name string, source Source) (string, error) {
	form, err := canonicalRound(name, string(source))
	if err != nil {
		return "", err
	}
	// Printing can regroup or requote; one more round makes the form a
	// fixed point of canonicalRound.
	return canonicalRound(name, form)
}

func canonicalRound(name, text string) (string, error) {
	file, err := newParser().Parse(strings.NewReader(text), name)
	if err != nil {
		return "", &SourceError{Name: name, Reason: "parse failed", Err: err}
	}
	decl, err := declaration(name, file)
	if err != nil {
		return "", err
	}
	stripLayout(decl)
	form, err := printNode(decl)
	if err != nil {
		return "", &SourceError{Name: name, Reason: "print failed", Err: err}
	}
	return form, nil
}

// canonicalFromDecl canonicalizes a declaration taken from an already
// parsed module. The module's AST is left untouched: the declaration is
// printed and the text canonicalized as a fresh source.
func canonicalFromDecl(decl *syntax.FuncDecl) (string, error) {
	text, err := printNode(decl)
	if err != nil {
		return "", &SourceError{Name: decl.Name.Value, Reason: "print failed", Err: err}
	}
	return canonicalForm(decl.Name.Value, Source(text))
}

// declaration extracts the function declaration for name from a parsed
// source, returning a fresh FuncDecl in the short form.
func declaration(name string, file *syntax.File) (*syntax.FuncDecl, error) {
	if len(file.Stmts) == 0 {
		return nil, &SourceError{Name: name, Reason: "source has no commands"}
	}

	if len(file.Stmts) == 1 {
		if decl, ok := file.Stmts[0].Cmd.(*syntax.FuncDecl); ok {
			if !plainStatement(file.Stmts[0]) {
				return nil, &SourceError{Name: name, Reason: "declaration has redirects, negation or backgrounding"}
			}
			if decl.Name.Value != name {
				return nil, &SourceError{Name: name, Reason: fmt.Sprintf("declares function %q", decl.Name.Value)}
			}
			return &syntax.FuncDecl{Name: &syntax.Lit{Value: name}, Body: decl.Body}, nil
		}
	}

	for _, stmt := range file.Stmts {
		if decl, ok := stmt.Cmd.(*syntax.FuncDecl); ok {
			return nil, &SourceError{Name: name, Reason: fmt.Sprintf("function %q declared alongside other commands", decl.Name.Value)}
		}
	}

	// A bare command list is the body of a brace group.
	body := &syntax.Stmt{Cmd: &syntax.Block{Stmts: file.Stmts}}
	return &syntax.FuncDecl{Name: &syntax.Lit{Value: name}, Body: body}, nil
}

// plainStatement reports whether stmt runs its command as-is.
func plainStatement(stmt *syntax.Stmt) bool {
	return !stmt.Negated && !stmt.Background && !stmt.Coprocess && len(stmt.Redirs) == 0
}

var (
	posType      = reflect.TypeOf(syntax.Pos{})
	commentsType = reflect.TypeOf([]syntax.Comment(nil))
)

// stripLayout zeroes every position and drops every comment in the tree
// under node, leaving only syntax structure.
func stripLayout(node syntax.Node) {
	stripValue(reflect.ValueOf(node))
}

func stripValue(value reflect.Value) {
	switch value.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !value.IsNil() {
			stripValue(value.Elem())
		}
	case reflect.Slice:
		for i := range value.Len() {
			stripValue(value.Index(i))
		}
	case reflect.Struct:
		if value.Type() == posType {
			if value.CanSet() {
				value.Set(reflect.Zero(posType))
			}
			return
		}
		for i := range value.NumField() {
			field := value.Field(i)
			if !field.CanSet() {
				continue
			}
			if field.Type() == commentsType {
				field.Set(reflect.Zero(commentsType))
				continue
			}
			stripValue(field)
		}
	}
}
