package entity

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dyluth/quire/pkg/datatype"
)

// Snapshot is one language's view of an entity: attribute names mapped to raw
// encoded strings. A key mapped to nil is a tombstone, distinct from a key that
// was never set. Tombstones remember the version of the delete so that they
// order against values written elsewhere.
type Snapshot struct {
	lang    datatype.Lang
	attrs   map[string]*string
	deleted map[string]int
}

// Attribute is one live key/value pair of a snapshot.
type Attribute struct {
	Key   string
	Value string
}

// NewSnapshot returns an empty snapshot for lang.
func NewSnapshot(lang datatype.Lang) *Snapshot {
	return &Snapshot{lang: lang, attrs: make(map[string]*string), deleted: make(map[string]int)}
}

// Lang returns the snapshot's language.
func (s *Snapshot) Lang() datatype.Lang {
	return s.lang
}

// Set stores value under key. Strings are stored as given and typed values
// in their structural encoding, version included. A nil value, a nil pointer
// or a null datatype.Value records a tombstone.
func (s *Snapshot) Set(key string, value any) error {
	switch v := value.(type) {
	case nil:
		s.Del(key)
	case string:
		s.SetRaw(key, v)
	case *string:
		if v == nil {
			s.Del(key)
			return nil
		}
		s.SetRaw(key, *v)
	case datatype.Value:
		if isNull, err := v.IsNull(datatype.ReadOptions{}); err == nil && isNull {
			s.DelAt(key, v.Version())
			return nil
		}
		data, err := json.Marshal(v.ToMap())
		if err != nil {
			return fmt.Errorf("failed to encode %s value for %q: %w", v.Kind(), key, err)
		}
		s.SetRaw(key, string(data))
	case fmt.Stringer:
		s.SetRaw(key, v.String())
	default:
		s.SetRaw(key, fmt.Sprint(v))
	}
	return nil
}

// SetRaw stores raw under key, replacing any tombstone.
func (s *Snapshot) SetRaw(key, raw string) {
	s.attrs[key] = &raw
	delete(s.deleted, key)
}

// Del records a tombstone for key at version 0.
func (s *Snapshot) Del(key string) {
	s.DelAt(key, 0)
}

// DelAt records a tombstone for key deleted at version.
func (s *Snapshot) DelAt(key string, version int) {
	s.attrs[key] = nil
	s.deleted[key] = version
}

// DeletedVersion returns the version key was deleted at. ok is false unless
// key is tombstoned.
func (s *Snapshot) DeletedVersion(key string) (version int, ok bool) {
	if !s.WasDeleted(key) {
		return 0, false
	}
	return s.deleted[key], true
}

// Get returns the raw value of key. Absent and tombstoned keys report false.
func (s *Snapshot) Get(key string) (string, bool) {
	v := s.attrs[key]
	if v == nil {
		return "", false
	}
	return *v, true
}

// Has reports whether key holds a live value.
func (s *Snapshot) Has(key string) bool {
	return s.attrs[key] != nil
}

// WasDeleted reports whether key is tombstoned.
func (s *Snapshot) WasDeleted(key string) bool {
	v, present := s.attrs[key]
	return present && v == nil
}

// Touched reports whether key was ever set or deleted.
func (s *Snapshot) Touched(key string) bool {
	_, present := s.attrs[key]
	return present
}

// Keys returns live keys in sorted order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.attrs))
	for k, v := range s.attrs {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// All returns the live key/value pairs sorted by key.
func (s *Snapshot) All() []Attribute {
	keys := s.Keys()
	all := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		all = append(all, Attribute{Key: k, Value: *s.attrs[k]})
	}
	return all
}

// DeletedKeys returns tombstoned keys in sorted order.
func (s *Snapshot) DeletedKeys() []string {
	var keys []string
	for k, v := range s.attrs {
		if v == nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len counts live and tombstoned keys.
func (s *Snapshot) Len() int {
	return len(s.attrs)
}

func (s *Snapshot) clone() *Snapshot {
	c := NewSnapshot(s.lang)
	for k, v := range s.attrs {
		if v != nil {
			c.SetRaw(k, *v)
		} else {
			c.DelAt(k, s.deleted[k])
		}
	}
	return c
}
