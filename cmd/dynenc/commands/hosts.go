// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

// BuiltinHosts returns the host implementations definition files can
// name with "host:". Host dependencies contribute only their name to a
// module digest, so any of these can stand in for another at load time.
//
//	upper, lower   functions of one string
//	strings        object with upper, lower, trim and prefix methods
func BuiltinHosts() map[string]any {
	return map[string]any{
		"upper": dynenc.HostFunc(upper),
		"lower": dynenc.HostFunc(lower),
		"strings": dynenc.HostObject{
			"upper":  upper,
			"lower":  lower,
			"trim":   trim,
			"prefix": prefix,
		},
	}
}

func stringArgs(args []any, count int) ([]string, error) {
	if len(args) != count {
		return nil, fmt.Errorf("expected %d string arguments, got %d", count, len(args))
	}
	values := make([]string, count)
	for i, arg := range args {
		value, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("argument %d is %T, want string", i+1, arg)
		}
		values[i] = value
	}
	return values, nil
}

func upper(ctx context.Context, args []any) (any, error) {
	values, err := stringArgs(args, 1)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(values[0]), nil
}

func lower(ctx context.Context, args []any) (any, error) {
	values, err := stringArgs(args, 1)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(values[0]), nil
}

func trim(ctx context.Context, args []any) (any, error) {
	values, err := stringArgs(args, 1)
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(values[0]), nil
}

// prefix returns its second argument prefixed by its first.
func prefix(ctx context.Context, args []any) (any, error) {
	values, err := stringArgs(args, 2)
	if err != nil {
		return nil, err
	}
	return values[0] + values[1], nil
}
