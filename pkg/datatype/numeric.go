package datatype

import (
	"cmp"
	"math"
	"strconv"
	"strings"
)

// Numeric holds a finite float64.
type Numeric struct {
	scalar[float64]
}

var numericTraits = &traits[float64]{
	kind:    KindNumeric,
	coerce:  coerceFloat,
	compare: cmp.Compare[float64],
	encode:  func(v float64) any { return v },
	text:    func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) },
}

// NewNumeric returns a null Numeric at version 0.
func NewNumeric() *Numeric {
	return &Numeric{scalar[float64]{traits: numericTraits}}
}

func (n *Numeric) Clone() Value {
	return &Numeric{n.cloneRegister()}
}

func coerceFloat(input any) (float64, error) {
	var f float64
	if s, ok := asString(input); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, invalidValue(KindNumeric, input)
		}
		f = parsed
	} else {
		parsed, ok := asFloat64(input)
		if !ok {
			return 0, invalidValue(KindNumeric, input)
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalidValue(KindNumeric, input)
	}
	return f, nil
}
