package datatype

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// normalizeInput dereferences pointers so *string and friends coerce like
// their targets. Nil pointers become nil.
func normalizeInput(input any) any {
	for input != nil {
		rv := reflect.ValueOf(input)
		if rv.Kind() != reflect.Pointer {
			return input
		}
		if rv.IsNil() {
			return nil
		}
		input = rv.Elem().Interface()
	}
	return input
}

// asInt64 accepts Go integers, integral floats and json.Number.
func asInt64(input any) (int64, bool) {
	switch v := input.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintToInt64(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintToInt64(v)
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return floatToInt64(f)
		}
	}
	return 0, false
}

func uintToInt64(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// asFloat64 accepts any Go number and json.Number.
func asFloat64(input any) (float64, bool) {
	switch v := input.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	if n, ok := asInt64(input); ok {
		return float64(n), true
	}
	if v, ok := input.(uint64); ok {
		return float64(v), true
	}
	return 0, false
}

// asString accepts strings only; numbers are not silently stringified.
func asString(input any) (string, bool) {
	s, ok := input.(string)
	return s, ok
}

func parseIntString(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil
}
