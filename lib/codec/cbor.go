// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding. Same logical data always produces identical bytes.
var encMode cbor.EncMode

// decMode decodes standard CBOR. Untyped maps decode as
// map[string]any so decoded values can be re-marshaled as JSON.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// NewEncoder returns a deterministic CBOR encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// FromJSON decodes a single JSON value into plain Go values, keeping
// integers as int64 (uint64 above math.MaxInt64) instead of float64. Without this, JSON integers
// would encode as CBOR floats and change the deterministic bytes.
func FromJSON(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("decoding JSON: trailing data after value")
	}
	return convertNumbers(value)
}

// MarshalJSON encodes the JSON value in data as deterministic CBOR.
func MarshalJSON(data []byte) ([]byte, error) {
	value, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	return Marshal(value)
}

// convertNumbers walks a JSON-decoded value and replaces json.Number
// with int64 when the number is integral, uint64 when it is integral
// and only fits unsigned, float64 otherwise.
func convertNumbers(v any) (any, error) {
	switch value := v.(type) {
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return integer, nil
		}
		if unsigned, err := strconv.ParseUint(value.String(), 10, 64); err == nil {
			return unsigned, nil
		}
		float, err := value.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q is neither int64 nor float64", value.String())
		}
		return float, nil

	case map[string]any:
		for key, element := range value {
			converted, err := convertNumbers(element)
			if err != nil {
				return nil, err
			}
			value[key] = converted
		}
		return value, nil

	case []any:
		for index, element := range value {
			converted, err := convertNumbers(element)
			if err != nil {
				return nil, err
			}
			value[index] = converted
		}
		return value, nil

	default:
		return v, nil
	}
}
