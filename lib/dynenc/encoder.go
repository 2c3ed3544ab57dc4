// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/dynenc/lib/compact"
)

// Encoder is a verified, loaded encoder. It implements [compact.Codec];
// an operation whose capability the module does not provide returns
// [compact.ErrMissingCapability]. An Encoder is safe for concurrent use
// as long as concurrent calls use distinct states.
type Encoder struct {
	name         string
	hash         string
	instance     *Instance
	capabilities []string
	dependencies []Binding
	scripts      map[string]bool
	ctx          context.Context
	codec        compact.Codec
}

var _ compact.Codec = (*Encoder)(nil)

func newEncoder(module *Module, instance *Instance, hash string, capabilities []namedForm, bindings []Binding) *Encoder {
	encoder := &Encoder{
		name:         module.Name(),
		hash:         hash,
		instance:     instance,
		dependencies: bindings,
		scripts:      make(map[string]bool),
	}
	for _, binding := range bindings {
		if kind, _ := classify(binding.Value); kind == kindScript {
			encoder.scripts[binding.Name] = true
		}
	}

	for _, capability := range capabilities {
		encoder.capabilities = append(encoder.capabilities, capability.name)
	}
	encoder.ctx = context.Background()
	encoder.codec = encoder.newCodec()
	return encoder
}

// newCodec adapts the module's capabilities to compact.Codec, running
// each under e.ctx.
func (e *Encoder) newCodec() compact.Codec {
	var raw compact.Raw
	for _, capability := range e.capabilities {
		switch capability {
		case CapabilityPreencode:
			raw.Preencode = func(state *compact.State, value any) error {
				return e.runEncode(e.ctx, CapabilityPreencode, state, value)
			}
		case CapabilityEncode:
			raw.Encode = func(state *compact.State, value any) error {
				return e.runEncode(e.ctx, CapabilityEncode, state, value)
			}
		case CapabilityDecode:
			raw.Decode = func(state *compact.State) (any, error) {
				return e.runDecode(e.ctx, state)
			}
		}
	}
	return compact.From(raw)
}

// WithContext returns a copy of e whose Preencode, Encode and Decode
// run under ctx, so cancelling ctx stops a capability in progress.
// The copy shares e's module and dependencies. An Encoder from Load
// runs under context.Background.
func (e *Encoder) WithContext(ctx context.Context) *Encoder {
	scoped := *e
	scoped.ctx = ctx
	scoped.codec = scoped.newCodec()
	return &scoped
}

// Name returns the encoder name recorded in the module, or "".
func (e *Encoder) Name() string { return e.name }

// Hash returns the verified digest.
func (e *Encoder) Hash() string { return e.hash }

// Capabilities returns the capabilities the encoder provides, in the
// order encode, decode, preencode.
func (e *Encoder) Capabilities() []string {
	return append([]string(nil), e.capabilities...)
}

// Dependencies returns the names of the encoder's dependencies in
// sorted order.
func (e *Encoder) Dependencies() []string {
	return bindingNames(e.dependencies)
}

// Preencode runs the module's preencode capability.
func (e *Encoder) Preencode(state *compact.State, value any) error {
	return e.codec.Preencode(state, value)
}

// Encode runs the module's encode capability.
func (e *Encoder) Encode(state *compact.State, value any) error {
	return e.codec.Encode(state, value)
}

// Decode runs the module's decode capability. The value is whatever the
// module printed, decoded from JSON: objects are map[string]any,
// integers int64 (uint64 above math.MaxInt64), buffers base64 strings.
func (e *Encoder) Decode(state *compact.State) (any, error) {
	return e.codec.Decode(state)
}

// Call invokes a script dependency with args, JSON-encoded, and returns
// its output decoded from JSON (nil when it prints nothing).
func (e *Encoder) Call(ctx context.Context, name string, args ...any) (any, error) {
	if !e.scripts[name] {
		return nil, fmt.Errorf("%w: %q is not a script dependency", ErrCall, name)
	}
	words, err := jsonArgs(name, args)
	if err != nil {
		return nil, err
	}
	output, err := e.instance.call(ctx, name, words, nil)
	if err != nil {
		return nil, err
	}
	value, err := parseOutput(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %s printed invalid JSON: %w", ErrCall, name, err)
	}
	return value, nil
}

// Dependency returns the runtime value bound to name. Script
// dependencies are returned as a HostFunc that calls into the module.
func (e *Encoder) Dependency(name string) (any, bool) {
	for _, binding := range e.dependencies {
		if binding.Name != name {
			continue
		}
		if e.scripts[name] {
			return HostFunc(func(ctx context.Context, args []any) (any, error) {
				return e.Call(ctx, name, args...)
			}), true
		}
		return binding.Value, true
	}
	return nil, false
}

func (e *Encoder) runEncode(ctx context.Context, capability string, state *compact.State, value any) error {
	words, err := jsonArgs(capability, []any{value})
	if err != nil {
		return err
	}
	_, err = e.instance.call(ctx, capability, words, state)
	return err
}

func (e *Encoder) runDecode(ctx context.Context, state *compact.State) (any, error) {
	output, err := e.instance.call(ctx, CapabilityDecode, nil, state)
	if err != nil {
		return nil, err
	}
	value, err := parseOutput(output)
	if err != nil {
		return nil, fmt.Errorf("%w: decode printed invalid JSON: %w", ErrCall, err)
	}
	return value, nil
}

func jsonArgs(function string, args []any) ([]string, error) {
	words := make([]string, len(args))
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s argument %d is not JSON-encodable: %w", ErrCall, function, i+1, err)
		}
		words[i] = string(data)
	}
	return words, nil
}
