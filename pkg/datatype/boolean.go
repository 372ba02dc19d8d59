package datatype

import (
	"strconv"
	"strings"
)

// Boolean holds a bool. false orders before true.
type Boolean struct {
	scalar[bool]
}

var booleanTraits = &traits[bool]{
	kind:   KindBoolean,
	coerce: coerceBool,
	compare: func(a, b bool) int {
		switch {
		case a == b:
			return 0
		case !a:
			return -1
		default:
			return 1
		}
	},
	encode: func(v bool) any { return v },
	text:   strconv.FormatBool,
}

// NewBoolean returns a null Boolean at version 0.
func NewBoolean() *Boolean {
	return &Boolean{scalar[bool]{traits: booleanTraits}}
}

func (b *Boolean) Clone() Value {
	return &Boolean{b.cloneRegister()}
}

func coerceBool(input any) (bool, error) {
	switch v := input.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
	default:
		if n, ok := asInt64(input); ok && (n == 0 || n == 1) {
			return n == 1, nil
		}
	}
	return false, invalidValue(KindBoolean, input)
}
