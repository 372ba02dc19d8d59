package datatype

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds a fresh, null Value of one kind.
type Constructor func() Value

// Registry maps discriminators to constructors. It is the dispatch table used
// when decoding encoded values. Registries are explicit values: callers build
// one with NewDefaultRegistry and pass it to the schema and codec.
type Registry struct {
	mu           sync.RWMutex
	constructors map[Kind]Constructor
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[Kind]Constructor)}
}

// NewDefaultRegistry constructs a registry holding the ten built-in variants.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for kind, ctor := range builtins() {
		r.constructors[kind] = ctor
	}
	return r
}

func builtins() map[Kind]Constructor {
	return map[Kind]Constructor{
		KindBoolean:         func() Value { return NewBoolean() },
		KindInteger:         func() Value { return NewInteger() },
		KindNumeric:         func() Value { return NewNumeric() },
		KindDateTime:        func() Value { return NewDateTime() },
		KindMimeType:        func() Value { return NewMimeType() },
		KindURL:             func() Value { return NewURL() },
		KindEmail:           func() Value { return NewEmail() },
		KindFileSize:        func() Value { return NewFileSize() },
		KindTranslation:     func() Value { return NewTranslation() },
		KindLocalizedString: func() Value { return NewLocalizedString() },
	}
}

// Register stores ctor under kind. An existing registration is only
// overwritten when replace is true.
func (r *Registry) Register(kind Kind, ctor Constructor, replace bool) error {
	if kind == "" {
		return fmt.Errorf("datatype: discriminator must not be empty")
	}
	if ctor == nil {
		return fmt.Errorf("datatype: constructor for %q is nil", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.constructors == nil {
		r.constructors = make(map[Kind]Constructor)
	}
	if _, exists := r.constructors[kind]; exists && !replace {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, kind)
	}
	r.constructors[kind] = ctor
	return nil
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[kind]
	return ok
}

// Instantiate constructs a fresh, null value of kind.
func (r *Registry) Instantiate(kind Kind) (Value, error) {
	r.mu.RLock()
	ctor := r.constructors[kind]
	r.mu.RUnlock()
	if ctor == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
	return ctor(), nil
}

// Kinds returns the registered discriminators sorted alphabetically.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.constructors))
	for kind := range r.constructors {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Decode reads the "type" discriminator of m, instantiates that kind and
// hydrates it from m.
func (r *Registry) Decode(m map[string]any) (Value, error) {
	raw, ok := m["type"]
	if !ok {
		return nil, &HydrationError{Discriminator: "<unknown>", Field: "type", Detail: "missing"}
	}
	s, ok := raw.(string)
	if !ok {
		return nil, &HydrationError{Discriminator: "<unknown>", Field: "type", Detail: fmt.Sprintf("not a string: %v", raw)}
	}
	v, err := r.Instantiate(Kind(s))
	if err != nil {
		return nil, err
	}
	if err := v.FromMap(m); err != nil {
		return nil, err
	}
	return v, nil
}
