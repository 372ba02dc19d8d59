package datatype

import (
	"cmp"
	"strconv"
)

// Integer holds an int64.
type Integer struct {
	scalar[int64]
}

var integerTraits = &traits[int64]{
	kind:    KindInteger,
	coerce:  coerceInt,
	compare: cmp.Compare[int64],
	encode:  func(v int64) any { return v },
	text:    func(v int64) string { return strconv.FormatInt(v, 10) },
}

// NewInteger returns a null Integer at version 0.
func NewInteger() *Integer {
	return &Integer{scalar[int64]{traits: integerTraits}}
}

func (i *Integer) Clone() Value {
	return &Integer{i.cloneRegister()}
}

func coerceInt(input any) (int64, error) {
	if s, ok := asString(input); ok {
		if n, ok := parseIntString(s); ok {
			return n, nil
		}
		return 0, invalidValue(KindInteger, input)
	}
	if n, ok := asInt64(input); ok {
		return n, nil
	}
	return 0, invalidValue(KindInteger, input)
}
