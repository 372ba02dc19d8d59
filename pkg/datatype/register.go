package datatype

import (
	"fmt"
)

// register is the versioned last-writer-wins cell shared by every variant.
type register[T any] struct {
	value   *T
	version int
}

func (r *register[T]) Version() int {
	return r.version
}

func (r *register[T]) SetVersion(v int) error {
	if v < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	r.version = v
	return nil
}

// compareOptional orders null before any value; two nulls are equal.
func compareOptional[T any](a, b *T, cmp func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp(*a, *b)
}

// mergeRegister folds src into dst:
//   - a lower src version is stale and ignored
//   - a higher src version wins outright, null included
//   - at equal versions the greater value wins and the version is unchanged
func mergeRegister[T any](dst, src *register[T], cmp func(T, T) int) {
	switch {
	case src.version < dst.version:
		return
	case src.version > dst.version:
		dst.value = clonePtr(src.value)
		dst.version = src.version
	default:
		if compareOptional(src.value, dst.value, cmp) > 0 {
			dst.value = clonePtr(src.value)
		}
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func checkVersion(opts WriteOptions) error {
	if opts.Version != nil && *opts.Version < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, *opts.Version)
	}
	return nil
}

// traits carries the variant-specific behaviour of a scalar.
type traits[T any] struct {
	kind    Kind
	coerce  func(input any) (T, error)
	compare func(a, b T) int
	encode  func(v T) any
	text    func(v T) string
	// human renders the value for ReadOptions.Formatted; nil when the variant has no such form.
	human func(v T) string
}

// scalar implements Value for every single-valued, language-neutral variant.
// Variants embed it and are built by their New* constructors, which bind traits.
type scalar[T any] struct {
	register[T]
	traits *traits[T]
}

func (s *scalar[T]) core() *scalar[T] { return s }

func (s *scalar[T]) sealed() {}

func (s *scalar[T]) Kind() Kind {
	return s.traits.kind
}

func (s *scalar[T]) Set(input any, opts WriteOptions) error {
	if err := checkVersion(opts); err != nil {
		return err
	}
	input = normalizeInput(input)
	if input == nil {
		s.value = nil
	} else {
		v, err := s.traits.coerce(input)
		if err != nil {
			return err
		}
		s.value = &v
	}
	if opts.Version != nil {
		s.version = *opts.Version
	}
	return nil
}

func (s *scalar[T]) IsValid(input any, opts WriteOptions) bool {
	if checkVersion(opts) != nil {
		return false
	}
	input = normalizeInput(input)
	if input == nil {
		return true
	}
	_, err := s.traits.coerce(input)
	return err == nil
}

func (s *scalar[T]) Get(opts ReadOptions) (any, error) {
	if s.value == nil {
		return nil, nil
	}
	if opts.Formatted && s.traits.human != nil {
		return s.traits.human(*s.value), nil
	}
	return *s.value, nil
}

func (s *scalar[T]) IsNull(ReadOptions) (bool, error) {
	return s.value == nil, nil
}

func (s *scalar[T]) Languages() []Lang {
	return []Lang{AnyLanguage}
}

// Raw returns the value and whether it is set.
func (s *scalar[T]) Raw() (T, bool) {
	if s.value == nil {
		var zero T
		return zero, false
	}
	return *s.value, true
}

func (s *scalar[T]) peer(other Value) (*scalar[T], bool) {
	if other == nil || other.Kind() != s.Kind() {
		return nil, false
	}
	o, ok := other.(interface{ core() *scalar[T] })
	if !ok {
		return nil, false
	}
	return o.core(), true
}

func (s *scalar[T]) CanMergeWith(other Value) bool {
	_, ok := s.peer(other)
	return ok
}

func (s *scalar[T]) Equal(other Value) (bool, error) {
	o, ok := s.peer(other)
	if !ok {
		return false, incomparable(s.Kind(), other)
	}
	return compareOptional(s.value, o.value, s.traits.compare) == 0, nil
}

func (s *scalar[T]) GreaterThan(other Value) (bool, error) {
	o, ok := s.peer(other)
	if !ok {
		return false, incomparable(s.Kind(), other)
	}
	return compareOptional(s.value, o.value, s.traits.compare) > 0, nil
}

func (s *scalar[T]) Merge(other Value) error {
	o, ok := s.peer(other)
	if !ok {
		return mergeUnsupported(s.Kind(), other)
	}
	mergeRegister(&s.register, &o.register, s.traits.compare)
	return nil
}

func (s *scalar[T]) ToMap() map[string]any {
	m := map[string]any{
		"type": string(s.Kind()),
		"val":  nil,
		"ver":  s.version,
	}
	if s.value != nil {
		m["val"] = s.traits.encode(*s.value)
	}
	return m
}

func (s *scalar[T]) FromMap(m map[string]any) error {
	raw, version, err := readEnvelope(s.Kind(), m)
	if err != nil {
		return err
	}
	var value *T
	if raw = normalizeInput(raw); raw != nil {
		v, err := s.traits.coerce(raw)
		if err != nil {
			return &HydrationError{Discriminator: s.Kind(), Field: "val", Detail: "rejected", Err: err}
		}
		value = &v
	}
	s.value = value
	s.version = version
	return nil
}

func (s *scalar[T]) String() string {
	if s.value == nil {
		return ""
	}
	return s.traits.text(*s.value)
}

func (s *scalar[T]) cloneRegister() scalar[T] {
	return scalar[T]{
		register: register[T]{value: clonePtr(s.value), version: s.version},
		traits:   s.traits,
	}
}

// readEnvelope validates the common {type, val, ver} fields.
func readEnvelope(kind Kind, m map[string]any) (val any, version int, err error) {
	if m == nil {
		return nil, 0, &HydrationError{Discriminator: kind, Field: "type", Detail: "missing"}
	}
	t, ok := m["type"]
	if !ok {
		return nil, 0, &HydrationError{Discriminator: kind, Field: "type", Detail: "missing"}
	}
	if s, ok := t.(string); !ok || Kind(s) != kind {
		return nil, 0, &HydrationError{Discriminator: kind, Field: "type", Detail: fmt.Sprintf("wrong type %v", t)}
	}
	val, ok = m["val"]
	if !ok {
		return nil, 0, &HydrationError{Discriminator: kind, Field: "val", Detail: "missing"}
	}
	if v, ok := m["ver"]; ok && v != nil {
		n, ok := asInt64(normalizeInput(v))
		if !ok || n < 0 || int64(int(n)) != n {
			return nil, 0, &HydrationError{Discriminator: kind, Field: "ver", Detail: fmt.Sprintf("not a version: %v", v)}
		}
		version = int(n)
	}
	return val, version, nil
}
