// Package entity holds the Entity aggregate: an identifier, an immutable
// entity type and one tombstone-aware Snapshot per language.
//
// Snapshots store raw encoded strings. Decoding them into typed values, and
// merging two entities, is done by callers that know the attribute schema
// (see pkg/codec and internal/reconcile).
//
// Entities are not safe for concurrent mutation; hosts serialize writers.
package entity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/identifier"
)

var (
	// ErrLanguageNotSet is returned when a snapshot operation has no language.
	ErrLanguageNotSet = errors.New("language not set")

	// ErrIdentifierAlreadySet is returned when assigning a second identifier.
	ErrIdentifierAlreadySet = errors.New("identifier already set")

	// ErrEntityTypeMismatch is returned when an identifier names another entity type.
	ErrEntityTypeMismatch = errors.New("entity type mismatch")
)

// Entity is a multi-language document.
type Entity struct {
	id         *identifier.Identifier
	entityType int64
	revision   string
	snapshots  map[datatype.Lang]*Snapshot
}

// New returns an entity of entityType with no identifier and no snapshots.
func New(entityType int64) *Entity {
	return &Entity{entityType: entityType, snapshots: make(map[datatype.Lang]*Snapshot)}
}

// FromIdentifier returns an empty entity named id, typed by id.EntityType.
func FromIdentifier(id identifier.Identifier) *Entity {
	e := New(id.EntityType)
	e.id = &id
	return e
}

// EntityType returns the entity type fixed at construction.
func (e *Entity) EntityType() int64 {
	return e.entityType
}

// Identifier returns the entity's identifier and whether it has one.
func (e *Entity) Identifier() (identifier.Identifier, bool) {
	if e.id == nil {
		return identifier.Identifier{}, false
	}
	return *e.id, true
}

// SetIdentifier assigns id once. The identifier's entity type must match.
func (e *Entity) SetIdentifier(id identifier.Identifier) error {
	if e.id != nil {
		if *e.id == id {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrIdentifierAlreadySet, e.id)
	}
	if id.EntityType != e.entityType {
		return fmt.Errorf("%w: identifier %s names type %d, entity is type %d", ErrEntityTypeMismatch, id, id.EntityType, e.entityType)
	}
	e.id = &id
	return nil
}

// Revision returns the store revision the entity was loaded at, "" when new.
func (e *Entity) Revision() string {
	return e.revision
}

// SetRevision records the store revision.
func (e *Entity) SetRevision(rev string) {
	e.revision = rev
}

// Snapshot returns the snapshot for lang, creating it on first touch.
// The wildcard language addresses language-neutral attributes.
func (e *Entity) Snapshot(lang datatype.Lang) (*Snapshot, error) {
	if lang == "" {
		return nil, ErrLanguageNotSet
	}
	canonical, err := datatype.ParseLang(string(lang))
	if err != nil {
		return nil, err
	}
	s, ok := e.snapshots[canonical]
	if !ok {
		s = NewSnapshot(canonical)
		e.snapshots[canonical] = s
	}
	return s, nil
}

// Lookup returns the snapshot for lang without creating it.
func (e *Entity) Lookup(lang datatype.Lang) (*Snapshot, bool) {
	canonical, err := datatype.ParseLang(string(lang))
	if err != nil {
		return nil, false
	}
	s, ok := e.snapshots[canonical]
	return s, ok
}

// Languages returns every language with a snapshot, sorted.
func (e *Entity) Languages() []datatype.Lang {
	langs := make([]datatype.Lang, 0, len(e.snapshots))
	for lang := range e.snapshots {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Get returns the raw value of key in lang.
func (e *Entity) Get(key string, lang datatype.Lang) (string, bool, error) {
	s, err := e.Snapshot(lang)
	if err != nil {
		return "", false, err
	}
	v, ok := s.Get(key)
	return v, ok, nil
}

// Set stores value under key in lang. A nil value records a tombstone.
func (e *Entity) Set(key string, value any, lang datatype.Lang) error {
	s, err := e.Snapshot(lang)
	if err != nil {
		return err
	}
	return s.Set(key, value)
}

// Has reports whether key is live in lang.
func (e *Entity) Has(key string, lang datatype.Lang) (bool, error) {
	s, err := e.Snapshot(lang)
	if err != nil {
		return false, err
	}
	return s.Has(key), nil
}

// Del tombstones key in lang.
func (e *Entity) Del(key string, lang datatype.Lang) error {
	s, err := e.Snapshot(lang)
	if err != nil {
		return err
	}
	s.Del(key)
	return nil
}

// WasDeleted reports whether key is tombstoned in lang.
func (e *Entity) WasDeleted(key string, lang datatype.Lang) (bool, error) {
	s, err := e.Snapshot(lang)
	if err != nil {
		return false, err
	}
	return s.WasDeleted(key), nil
}

// Keys returns the live keys of lang, sorted.
func (e *Entity) Keys(lang datatype.Lang) ([]string, error) {
	s, err := e.Snapshot(lang)
	if err != nil {
		return nil, err
	}
	return s.Keys(), nil
}

// All returns the live key/value pairs of lang, sorted by key.
func (e *Entity) All(lang datatype.Lang) ([]Attribute, error) {
	s, err := e.Snapshot(lang)
	if err != nil {
		return nil, err
	}
	return s.All(), nil
}

// DeletedKeys returns the tombstoned keys of lang, sorted.
func (e *Entity) DeletedKeys(lang datatype.Lang) ([]string, error) {
	s, err := e.Snapshot(lang)
	if err != nil {
		return nil, err
	}
	return s.DeletedKeys(), nil
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	c := New(e.entityType)
	if e.id != nil {
		id := *e.id
		c.id = &id
	}
	c.revision = e.revision
	for lang, s := range e.snapshots {
		c.snapshots[lang] = s.clone()
	}
	return c
}
