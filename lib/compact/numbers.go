// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compact

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Uint64Of converts a numeric value to uint64. Values decoded from JSON
// arrive as json.Number, int64 or integral float64; all are accepted as
// long as they fit.
func Uint64Of(value any) (uint64, error) {
	switch number := value.(type) {
	case uint64:
		return number, nil
	case uint:
		return uint64(number), nil
	case uint32:
		return uint64(number), nil
	case uint16:
		return uint64(number), nil
	case uint8:
		return uint64(number), nil
	case int, int8, int16, int32, int64:
		signed, _ := Int64Of(number)
		if signed < 0 {
			return 0, fmt.Errorf("compact: %d is negative", signed)
		}
		return uint64(signed), nil
	case float64:
		if number < 0 || number != math.Trunc(number) || number >= math.MaxUint64 {
			return 0, fmt.Errorf("compact: %v is not an unsigned integer", number)
		}
		return uint64(number), nil
	case json.Number:
		parsed, err := strconv.ParseUint(number.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("compact: %q is not an unsigned integer", number.String())
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("compact: expected an unsigned integer, got %T", value)
	}
}

// Int64Of converts a numeric value to int64.
func Int64Of(value any) (int64, error) {
	switch number := value.(type) {
	case int64:
		return number, nil
	case int:
		return int64(number), nil
	case int32:
		return int64(number), nil
	case int16:
		return int64(number), nil
	case int8:
		return int64(number), nil
	case uint, uint8, uint16, uint32, uint64:
		unsigned, _ := Uint64Of(number)
		if unsigned > math.MaxInt64 {
			return 0, fmt.Errorf("compact: %d overflows int64", unsigned)
		}
		return int64(unsigned), nil
	case float64:
		if number != math.Trunc(number) || number < math.MinInt64 || number >= math.MaxInt64 {
			return 0, fmt.Errorf("compact: %v is not an integer", number)
		}
		return int64(number), nil
	case json.Number:
		parsed, err := strconv.ParseInt(number.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("compact: %q is not an integer", number.String())
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("compact: expected an integer, got %T", value)
	}
}
