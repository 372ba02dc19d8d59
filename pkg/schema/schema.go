// Package schema maps namespaced attribute names such as core.file.mime_type to
// the datatype kind that must hold their values.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/dyluth/quire/pkg/datatype"
)

// ErrUnknownAttribute is returned by TypeFor for names with no mapping.
var ErrUnknownAttribute = errors.New("unknown attribute")

// ErrInvalidAttributeName is returned by Define for names that are not
// dot-separated lower-case segments.
var ErrInvalidAttributeName = errors.New("invalid attribute name")

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// Core attribute names.
const (
	FileMimeType = "core.file.mime_type"
	FileSize     = "core.file.size"
	FileURL      = "core.file.url"
	Title        = "core.title"
	Description  = "core.description"
	ContactEmail = "core.contact.email"
	Published    = "core.published"
	PublishedAt  = "core.published_at"
	Rating       = "core.rating"
	Position     = "core.position"
)

var coreAttributes = map[string]datatype.Kind{
	FileMimeType: datatype.KindMimeType,
	FileSize:     datatype.KindFileSize,
	FileURL:      datatype.KindURL,
	Title:        datatype.KindTranslation,
	Description:  datatype.KindTranslation,
	ContactEmail: datatype.KindEmail,
	Published:    datatype.KindBoolean,
	PublishedAt:  datatype.KindDateTime,
	Rating:       datatype.KindNumeric,
	Position:     datatype.KindInteger,
}

// Schema is a runtime-extensible attribute name to kind mapping. Every kind it
// hands out is guaranteed to be instantiable from its registry.
type Schema struct {
	mu       sync.RWMutex
	registry *datatype.Registry
	kinds    map[string]datatype.Kind
}

// New returns an empty schema backed by registry.
func New(registry *datatype.Registry) *Schema {
	return &Schema{registry: registry, kinds: make(map[string]datatype.Kind)}
}

// Core returns a schema holding the core.* attributes.
func Core(registry *datatype.Registry) *Schema {
	s := New(registry)
	for name, kind := range coreAttributes {
		s.kinds[name] = kind
	}
	return s
}

// Registry returns the registry values are instantiated from.
func (s *Schema) Registry() *datatype.Registry {
	return s.registry
}

// Define maps name to kind, replacing any previous mapping.
func (s *Schema) Define(name string, kind datatype.Kind) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAttributeName, name)
	}
	if !s.registry.Has(kind) {
		return fmt.Errorf("attribute %q: %w: %q", name, datatype.ErrUnknownType, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds[name] = kind
	return nil
}

// TypeFor returns the kind the named attribute must use.
func (s *Schema) TypeFor(name string) (datatype.Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kind, ok := s.kinds[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return kind, nil
}

// NewValue instantiates an empty value of the named attribute's kind.
func (s *Schema) NewValue(name string) (datatype.Value, error) {
	kind, err := s.TypeFor(name)
	if err != nil {
		return nil, err
	}
	return s.registry.Instantiate(kind)
}

// Attributes returns the mapped names in sorted order.
func (s *Schema) Attributes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
