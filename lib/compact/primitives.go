// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/bureau-foundation/dynenc/lib/codec"
)

// Primitive codecs. Decoded values have fixed Go types: Uint yields
// uint64, Int int64, Bool bool, String string, Buffer []byte. JSON and
// CBOR yield plain values (maps, slices, strings, numbers, bools, nil).
var (
	Uint   Codec = uintCodec{}
	Int    Codec = intCodec{}
	Bool   Codec = boolCodec{}
	String Codec = stringCodec{}
	Buffer Codec = bufferCodec{}
	JSON   Codec = jsonCodec{}
	CBOR   Codec = cborCodec{}
)

var primitives = map[string]Codec{
	"uint":   Uint,
	"int":    Int,
	"bool":   Bool,
	"string": String,
	"buffer": Buffer,
	"json":   JSON,
	"cbor":   CBOR,
}

// Lookup returns the primitive codec registered under name.
func Lookup(name string) (Codec, bool) {
	primitive, ok := primitives[name]
	return primitive, ok
}

// Names returns the registered primitive names in sorted order.
func Names() []string {
	names := make([]string, 0, len(primitives))
	for name := range primitives {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// uintSize is the encoded size of n as a compact varint.
func uintSize(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

func putUint(state *State, n uint64) error {
	window, err := state.Reserve(uintSize(n))
	if err != nil {
		return err
	}
	switch len(window) {
	case 1:
		window[0] = byte(n)
	case 3:
		window[0] = 0xfd
		binary.LittleEndian.PutUint16(window[1:], uint16(n))
	case 5:
		window[0] = 0xfe
		binary.LittleEndian.PutUint32(window[1:], uint32(n))
	default:
		window[0] = 0xff
		binary.LittleEndian.PutUint64(window[1:], n)
	}
	return nil
}

func getUint(state *State) (uint64, error) {
	prefix, err := state.Take(1)
	if err != nil {
		return 0, err
	}
	switch prefix[0] {
	case 0xfd:
		body, err := state.Take(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(body)), nil
	case 0xfe:
		body, err := state.Take(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(body)), nil
	case 0xff:
		body, err := state.Take(8)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(body), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// putBytes writes a length-prefixed byte string.
func putBytes(state *State, data []byte) error {
	if err := putUint(state, uint64(len(data))); err != nil {
		return err
	}
	window, err := state.Reserve(len(data))
	if err != nil {
		return err
	}
	copy(window, data)
	return nil
}

func getBytes(state *State) ([]byte, error) {
	length, err := getUint(state)
	if err != nil {
		return nil, err
	}
	if length > uint64(state.End-state.Start) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds remaining %d bytes", ErrOutOfBounds, length, state.End-state.Start)
	}
	return state.Take(int(length))
}

func bytesSize(n int) int {
	return uintSize(uint64(n)) + n
}

type uintCodec struct{}

func (uintCodec) Preencode(state *State, value any) error {
	n, err := Uint64Of(value)
	if err != nil {
		return err
	}
	state.End += uintSize(n)
	return nil
}

func (uintCodec) Encode(state *State, value any) error {
	n, err := Uint64Of(value)
	if err != nil {
		return err
	}
	return putUint(state, n)
}

func (uintCodec) Decode(state *State) (any, error) {
	return getUint(state)
}

type intCodec struct{}

func zigzag(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

func unzigzag(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

func (intCodec) Preencode(state *State, value any) error {
	n, err := Int64Of(value)
	if err != nil {
		return err
	}
	state.End += uintSize(zigzag(n))
	return nil
}

func (intCodec) Encode(state *State, value any) error {
	n, err := Int64Of(value)
	if err != nil {
		return err
	}
	return putUint(state, zigzag(n))
}

func (intCodec) Decode(state *State) (any, error) {
	n, err := getUint(state)
	if err != nil {
		return nil, err
	}
	return unzigzag(n), nil
}

type boolCodec struct{}

func boolOf(value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("compact: expected a bool, got %T", value)
	}
	return b, nil
}

func (boolCodec) Preencode(state *State, value any) error {
	if _, err := boolOf(value); err != nil {
		return err
	}
	state.End++
	return nil
}

func (boolCodec) Encode(state *State, value any) error {
	b, err := boolOf(value)
	if err != nil {
		return err
	}
	window, err := state.Reserve(1)
	if err != nil {
		return err
	}
	if b {
		window[0] = 1
	} else {
		window[0] = 0
	}
	return nil
}

func (boolCodec) Decode(state *State) (any, error) {
	window, err := state.Take(1)
	if err != nil {
		return nil, err
	}
	switch window[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return nil, fmt.Errorf("compact: invalid bool byte 0x%02x", window[0])
	}
}

type stringCodec struct{}

func stringOf(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("compact: expected a string, got %T", value)
	}
	return s, nil
}

func (stringCodec) Preencode(state *State, value any) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	state.End += bytesSize(len(s))
	return nil
}

func (stringCodec) Encode(state *State, value any) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	return putBytes(state, []byte(s))
}

func (stringCodec) Decode(state *State) (any, error) {
	data, err := getBytes(state)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("compact: string is not valid UTF-8")
	}
	return string(data), nil
}

type bufferCodec struct{}

func bufferOf(value any) ([]byte, error) {
	switch typed := value.(type) {
	case []byte:
		return typed, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("compact: expected a buffer, got %T", value)
	}
}

func (bufferCodec) Preencode(state *State, value any) error {
	data, err := bufferOf(value)
	if err != nil {
		return err
	}
	state.End += bytesSize(len(data))
	return nil
}

func (bufferCodec) Encode(state *State, value any) error {
	data, err := bufferOf(value)
	if err != nil {
		return err
	}
	return putBytes(state, data)
}

func (bufferCodec) Decode(state *State) (any, error) {
	data, err := getBytes(state)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

// jsonCodec stores the compact JSON text of a value as a string.
type jsonCodec struct{}

func (jsonCodec) Preencode(state *State, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("compact: encoding JSON: %w", err)
	}
	state.End += bytesSize(len(data))
	return nil
}

func (jsonCodec) Encode(state *State, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("compact: encoding JSON: %w", err)
	}
	return putBytes(state, data)
}

func (jsonCodec) Decode(state *State) (any, error) {
	data, err := getBytes(state)
	if err != nil {
		return nil, err
	}
	return codec.FromJSON(data)
}

// cborCodec stores the deterministic CBOR encoding of a value as a
// buffer.
type cborCodec struct{}

func (cborCodec) Preencode(state *State, value any) error {
	data, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("compact: encoding CBOR: %w", err)
	}
	state.End += bytesSize(len(data))
	return nil
}

func (cborCodec) Encode(state *State, value any) error {
	data, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("compact: encoding CBOR: %w", err)
	}
	return putBytes(state, data)
}

func (cborCodec) Decode(state *State) (any, error) {
	data, err := getBytes(state)
	if err != nil {
		return nil, err
	}
	var value any
	if err := codec.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("compact: decoding CBOR: %w", err)
	}
	return value, nil
}
