// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagsFromParams returns a flag set bound to the tagged fields of
// params, a pointer to a struct. Invalid params are a programming
// error and panic.
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers a flag on flagSet for every field of *params
// carrying a flag tag:
//
//	Output string `flag:"output,o" desc:"write here" default:"-"`
//
// The tag value is the long name and an optional one-letter shorthand.
// Fields are string or bool. Embedded structs contribute their fields,
// which is how commands share --config and --json.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

func bindStruct(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	for _, field := range reflect.VisibleFields(structValue.Type()) {
		if len(field.Index) != 1 {
			// Promoted fields are reached through their embedded struct.
			continue
		}
		fieldValue := structValue.FieldByIndex(field.Index)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		tag, ok := field.Tag.Lookup("flag")
		if !ok {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("field %s: flag on unexported field", field.Name)
		}
		name, shorthand, _ := strings.Cut(tag, ",")
		if err := bindField(fieldValue, flagSet, name, shorthand, field.Tag.Get("desc"), field.Tag.Get("default")); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

func bindField(fieldValue reflect.Value, flagSet *pflag.FlagSet, name, shorthand, usage, defaultText string) error {
	switch target := fieldValue.Addr().Interface().(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, defaultText, usage)
	case *bool:
		value := false
		if defaultText != "" {
			parsed, err := strconv.ParseBool(defaultText)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			value = parsed
		}
		flagSet.BoolVarP(target, name, shorthand, value, usage)
	default:
		return fmt.Errorf("flag --%s: unsupported type %s", name, fieldValue.Type())
	}
	return nil
}
