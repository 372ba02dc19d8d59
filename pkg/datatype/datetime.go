package datatype

import (
	"strings"
	"time"
)

// DateTime holds an instant in UTC. Ordering is by timestamp.
type DateTime struct {
	scalar[time.Time]
}

// dateTimeLayouts are tried in order when coercing strings.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var dateTimeTraits = &traits[time.Time]{
	kind:    KindDateTime,
	coerce:  coerceTime,
	compare: func(a, b time.Time) int { return a.Compare(b) },
	encode:  func(v time.Time) any { return v.Format(time.RFC3339Nano) },
	text:    func(v time.Time) string { return v.Format(time.RFC3339) },
}

// NewDateTime returns a null DateTime at version 0.
func NewDateTime() *DateTime {
	return &DateTime{scalar[time.Time]{traits: dateTimeTraits}}
}

func (d *DateTime) Clone() Value {
	return &DateTime{d.cloneRegister()}
}

func coerceTime(input any) (time.Time, error) {
	switch v := input.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, invalidValue(KindDateTime, input)
		}
		return v.UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, invalidValue(KindDateTime, input)
	}
	if n, ok := asInt64(input); ok {
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, invalidValue(KindDateTime, input)
}
