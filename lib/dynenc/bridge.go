// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/bureau-foundation/dynenc/lib/b4a"
	"github.com/bureau-foundation/dynenc/lib/codec"
	"github.com/bureau-foundation/dynenc/lib/compact"
)

// Values cross the module boundary as JSON text. Buffers are JSON
// strings holding standard base64, which is also how encoding/json
// represents []byte.

func writeJSON(w io.Writer, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding result as JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// parseJSON decodes one JSON argument.
func parseJSON(text string) (any, error) {
	value, err := codec.FromJSON([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", text, err)
	}
	return value, nil
}

// parseOutput decodes the output of a capability. Empty output is nil.
func parseOutput(output []byte) (any, error) {
	if len(bytes.TrimSpace(output)) == 0 {
		return nil, nil
	}
	return codec.FromJSON(output)
}

// codecValue decodes a JSON argument into the Go value the named
// primitive expects.
func codecValue(primitive, text string) (any, error) {
	switch primitive {
	case "uint", "int":
		var number json.Number
		if err := json.Unmarshal([]byte(text), &number); err != nil {
			return nil, fmt.Errorf("argument %q is not a number", text)
		}
		return number, nil
	case "buffer":
		var encoded string
		if err := json.Unmarshal([]byte(text), &encoded); err != nil {
			return nil, fmt.Errorf("argument %q is not a buffer string", text)
		}
		return base64.StdEncoding.DecodeString(encoded)
	default:
		return parseJSON(text)
	}
}

// cenc implements "cenc <primitive> preencode|encode <json>" and
// "cenc <primitive> decode" over the session's compact state.
func (s *session) cenc(stdout io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("cenc: usage: cenc <primitive> preencode|encode|decode [value]")
	}
	primitive, ok := compact.Lookup(args[0])
	if !ok {
		return fmt.Errorf("cenc: unknown primitive %q", args[0])
	}
	state, err := s.currentState()
	if err != nil {
		return fmt.Errorf("cenc: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch operation := args[1]; operation {
	case "preencode", "encode":
		if len(args) != 3 {
			return fmt.Errorf("cenc %s %s: expected one value", args[0], operation)
		}
		value, err := codecValue(args[0], args[2])
		if err != nil {
			return fmt.Errorf("cenc %s %s: %w", args[0], operation, err)
		}
		if operation == "preencode" {
			err = primitive.Preencode(state, value)
		} else {
			err = primitive.Encode(state, value)
		}
		if err != nil {
			return fmt.Errorf("cenc %s %s: %w", args[0], operation, err)
		}
		return nil
	case "decode":
		if len(args) != 2 {
			return fmt.Errorf("cenc %s decode: takes no value", args[0])
		}
		value, err := primitive.Decode(state)
		if err != nil {
			return fmt.Errorf("cenc %s decode: %w", args[0], err)
		}
		return writeJSON(stdout, value)
	default:
		return fmt.Errorf("cenc: unknown operation %q", operation)
	}
}

// runB4A implements the b4a helper:
//
//	b4a from <json-string> [encoding]     prints a buffer
//	b4a toString <json-buffer> [encoding] prints a string
//	b4a byteLength <json-string>          prints a number
//	b4a alloc <n>                         prints a zeroed buffer
func runB4A(stdout io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("b4a: missing operation")
	}
	encoding := b4a.UTF8
	if len(args) == 3 {
		parsed, err := b4a.ParseEncoding(args[2])
		if err != nil {
			return err
		}
		encoding = parsed
	}

	switch operation := args[0]; operation {
	case "from":
		text, err := jsonString(args, 2, 3)
		if err != nil {
			return fmt.Errorf("b4a from: %w", err)
		}
		buffer, err := b4a.From(text, encoding)
		if err != nil {
			return err
		}
		return writeJSON(stdout, buffer)
	case "toString":
		encoded, err := jsonString(args, 2, 3)
		if err != nil {
			return fmt.Errorf("b4a toString: %w", err)
		}
		buffer, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("b4a toString: buffer is not base64: %w", err)
		}
		text, err := b4a.ToString(buffer, encoding)
		if err != nil {
			return err
		}
		return writeJSON(stdout, text)
	case "byteLength":
		text, err := jsonString(args, 2, 2)
		if err != nil {
			return fmt.Errorf("b4a byteLength: %w", err)
		}
		return writeJSON(stdout, b4a.ByteLength(text))
	case "alloc":
		if len(args) != 2 {
			return fmt.Errorf("b4a alloc: expected a size")
		}
		size, err := strconv.Atoi(args[1])
		if err != nil || size < 0 || size > maxModuleSize {
			return fmt.Errorf("b4a alloc: invalid size %q", args[1])
		}
		return writeJSON(stdout, b4a.Alloc(size))
	default:
		return fmt.Errorf("b4a: unknown operation %q", operation)
	}
}

// jsonString decodes args[1] as a JSON string after checking that args
// has between minArgs and maxArgs entries.
func jsonString(args []string, minArgs, maxArgs int) (string, error) {
	if len(args) < minArgs || len(args) > maxArgs {
		return "", fmt.Errorf("wrong number of arguments")
	}
	var text string
	if err := json.Unmarshal([]byte(args[1]), &text); err != nil {
		return "", fmt.Errorf("argument %q is not a JSON string", args[1])
	}
	return text, nil
}

// callHost calls a host function with JSON-decoded arguments and prints
// its JSON-encoded result.
func callHost(ctx context.Context, stdout io.Writer, name string, function HostFunc, args []string) error {
	values := make([]any, len(args))
	for i, arg := range args {
		value, err := parseJSON(arg)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		values[i] = value
	}
	result, err := function(ctx, values)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return writeJSON(stdout, result)
}
