package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/entity"
	"github.com/dyluth/quire/pkg/identifier"
)

// Document discriminators.
const (
	DocumentType = "ENTITY"
	SnapshotType = "SNAPSHOT"
)

// Document is the stored form of an entity.
type Document struct {
	Type       string           `json:"type"`
	EntityID   *string          `json:"entity_id"`
	EntityType int64            `json:"entity_type"`
	Snapshot   SnapshotDocument `json:"snapshot"`
}

// SnapshotDocument carries every live attribute of the entity. SnapshotID is
// the store revision the document was read at. Deleted maps each tombstoned
// attribute to the languages it was deleted in and the version of each delete.
type SnapshotDocument struct {
	Type       string                    `json:"type"`
	SnapshotID *string                   `json:"snapshot_id"`
	Data       map[string]map[string]any `json:"data"`
	Deleted    map[string]map[string]int `json:"deleted,omitempty"`
}

// EncodeEntity builds the document for e. Tombstones stay out of Data and are
// listed with their versions in Deleted.
func (c *Codec) EncodeEntity(e *entity.Entity) (*Document, error) {
	doc := &Document{
		Type:       DocumentType,
		EntityType: e.EntityType(),
		Snapshot: SnapshotDocument{
			Type: SnapshotType,
			Data: make(map[string]map[string]any),
		},
	}
	if id, ok := e.Identifier(); ok {
		s := id.String()
		doc.EntityID = &s
	}
	if rev := e.Revision(); rev != "" {
		doc.Snapshot.SnapshotID = &rev
	}

	values, err := c.Flatten(e)
	if err != nil {
		return nil, err
	}
	for key, v := range values {
		doc.Snapshot.Data[key] = v.ToMap()
	}
	for _, lang := range e.Languages() {
		s, _ := e.Lookup(lang)
		for _, key := range s.DeletedKeys() {
			version, _ := s.DeletedVersion(key)
			if doc.Snapshot.Deleted == nil {
				doc.Snapshot.Deleted = make(map[string]map[string]int)
			}
			if doc.Snapshot.Deleted[key] == nil {
				doc.Snapshot.Deleted[key] = make(map[string]int)
			}
			doc.Snapshot.Deleted[key][string(lang)] = version
		}
	}
	return doc, nil
}

// Flatten decodes every live attribute of e into one value per attribute:
// translations are gathered into a LocalizedString and language-neutral
// values held by several snapshots are merged.
func (c *Codec) Flatten(e *entity.Entity) (map[string]datatype.Value, error) {
	values := make(map[string]datatype.Value)
	for _, lang := range e.Languages() {
		s, _ := e.Lookup(lang)
		for _, key := range s.Keys() {
			raw, _ := s.Get(key)
			v, err := c.DecodeRaw(key, raw, lang)
			if err != nil {
				return nil, err
			}
			if t, ok := v.(*datatype.Translation); ok {
				v, err = localize(t)
				if err != nil {
					return nil, fmt.Errorf("attribute %q: %w", key, err)
				}
			}
			existing, ok := values[key]
			if !ok {
				values[key] = v
				continue
			}
			if err := existing.Merge(v); err != nil {
				return nil, fmt.Errorf("attribute %q in %s snapshot: %w", key, lang, err)
			}
		}
	}
	return values, nil
}

func localize(t *datatype.Translation) (*datatype.LocalizedString, error) {
	composite := datatype.NewLocalizedString()
	var value *string
	if text, ok := t.Text(); ok {
		value = &text
	}
	if err := composite.SetTranslation(t.Lang(), value, t.Version()); err != nil {
		return nil, err
	}
	return composite, nil
}

// DecodeEntity rebuilds an entity from doc. Composites are split back into
// per-language snapshots; everything else lands in the wildcard snapshot.
func (c *Codec) DecodeEntity(doc *Document) (*entity.Entity, error) {
	if doc.Type != DocumentType {
		return nil, &datatype.HydrationError{Discriminator: DocumentType, Field: "type", Detail: fmt.Sprintf("wrong type %q", doc.Type)}
	}
	if doc.Snapshot.Type != SnapshotType {
		return nil, &datatype.HydrationError{Discriminator: SnapshotType, Field: "type", Detail: fmt.Sprintf("wrong type %q", doc.Snapshot.Type)}
	}

	e := entity.New(doc.EntityType)
	if doc.EntityID != nil {
		id, err := identifier.Parse(*doc.EntityID)
		if err != nil {
			return nil, &datatype.HydrationError{Discriminator: DocumentType, Field: "entity_id", Detail: "unparseable", Err: err}
		}
		if err := e.SetIdentifier(id); err != nil {
			return nil, &datatype.HydrationError{Discriminator: DocumentType, Field: "entity_id", Detail: "conflicts with entity_type", Err: err}
		}
	}
	if doc.Snapshot.SnapshotID != nil {
		e.SetRevision(*doc.Snapshot.SnapshotID)
	}

	keys := make([]string, 0, len(doc.Snapshot.Data))
	for key := range doc.Snapshot.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v, err := c.registry.Decode(doc.Snapshot.Data[key])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		if kind, err := c.schema.TypeFor(key); err == nil && !compatible(kind, v.Kind()) {
			return nil, &datatype.HydrationError{
				Discriminator: v.Kind(),
				Field:         "type",
				Detail:        fmt.Sprintf("attribute %q expects %s", key, kind),
			}
		}
		switch typed := v.(type) {
		case *datatype.LocalizedString:
			for _, t := range typed.Translations() {
				if err := c.store(e, key, t, t.Lang()); err != nil {
					return nil, err
				}
			}
		case *datatype.Translation:
			if err := c.store(e, key, typed, typed.Lang()); err != nil {
				return nil, err
			}
		default:
			if err := c.store(e, key, v, datatype.AnyLanguage); err != nil {
				return nil, err
			}
		}
	}
	if err := c.restoreTombstones(e, doc.Snapshot.Deleted); err != nil {
		return nil, err
	}
	return e, nil
}

// restoreTombstones applies the deletes of a document. A delete only replaces
// a live value holding an older version.
func (c *Codec) restoreTombstones(e *entity.Entity, deleted map[string]map[string]int) error {
	keys := make([]string, 0, len(deleted))
	for key := range deleted {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		langs := make([]string, 0, len(deleted[key]))
		for lang := range deleted[key] {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			version := deleted[key][lang]
			if version < 0 {
				return &datatype.HydrationError{Discriminator: SnapshotType, Field: "deleted", Detail: fmt.Sprintf("attribute %q has negative version %d", key, version)}
			}
			s, err := e.Snapshot(datatype.Lang(lang))
			if err != nil {
				return &datatype.HydrationError{Discriminator: SnapshotType, Field: "deleted", Detail: fmt.Sprintf("attribute %q", key), Err: err}
			}
			if raw, ok := s.Get(key); ok {
				live, err := c.VersionOf(key, raw, s.Lang())
				if err != nil {
					return err
				}
				if live >= version {
					continue
				}
			}
			if current, ok := s.DeletedVersion(key); ok && current >= version {
				continue
			}
			s.DelAt(key, version)
		}
	}
	return nil
}

// VersionOf returns the version of the register raw holds for lang. For a
// composite that is the translation in lang.
func (c *Codec) VersionOf(attr, raw string, lang datatype.Lang) (int, error) {
	v, err := c.DecodeRaw(attr, raw, lang)
	if err != nil {
		return 0, err
	}
	if composite, ok := v.(*datatype.LocalizedString); ok {
		if t, ok := composite.Translation(lang); ok {
			return t.Version(), nil
		}
	}
	return v.Version(), nil
}

// Marshal encodes e as a JSON document.
func (c *Codec) Marshal(e *entity.Entity) ([]byte, error) {
	doc, err := c.EncodeEntity(e)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON document into an entity.
func (c *Codec) Unmarshal(data []byte) (*entity.Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &datatype.HydrationError{Discriminator: DocumentType, Field: "json", Detail: "malformed", Err: err}
	}
	return c.DecodeEntity(&doc)
}
