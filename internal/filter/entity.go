package filter

import (
	"path"

	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/entity"
)

// Criteria defines filtering criteria for stored entities.
// All filters are ANDed together - an entity must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64         // Last write at or after, 0 = no filter
	UntilTimestampMs int64         // Last write at or before, 0 = no filter
	EntityType       int64         // Exact entity type, 0 = no filter
	Lang             datatype.Lang // Entity has a snapshot in this language, empty = no filter
	AttributeGlob    string        // Some live attribute name matches, empty = no filter
}

// Matches returns true if e, last written at updatedAtMs, matches all criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(e *entity.Entity, updatedAtMs int64) bool {
	if c.SinceTimestampMs > 0 && updatedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && updatedAtMs > c.UntilTimestampMs {
		return false
	}

	if c.EntityType != 0 && e.EntityType() != c.EntityType {
		return false
	}

	if c.Lang != "" {
		lang, err := datatype.ParseLang(string(c.Lang))
		if err != nil {
			return false
		}
		if _, ok := e.Lookup(lang); !ok {
			return false
		}
	}

	if c.AttributeGlob != "" && !hasMatchingAttribute(e, c.AttributeGlob) {
		return false
	}

	return true
}

func hasMatchingAttribute(e *entity.Entity, glob string) bool {
	for _, lang := range e.Languages() {
		s, _ := e.Lookup(lang)
		for _, key := range s.Keys() {
			if matched, err := path.Match(glob, key); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.EntityType != 0 ||
		c.Lang != "" ||
		c.AttributeGlob != ""
}
