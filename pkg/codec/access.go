package codec

import (
	"bytes"
	"fmt"

	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/entity"
)

// Value returns the typed value of attr as seen from lang.
//
// Language-bearing attributes return the Translation stored in lang's snapshot
// (a null one when absent). Language-neutral attributes merge whatever lang's
// snapshot and the wildcard snapshot hold. Reads never create snapshots.
func (c *Codec) Value(e *entity.Entity, attr string, lang datatype.Lang) (datatype.Value, error) {
	kind, err := c.schema.TypeFor(attr)
	if err != nil {
		return nil, err
	}
	if kind.LanguageBearing() {
		return c.translation(e, attr, lang)
	}

	value, err := c.registry.Instantiate(kind)
	if err != nil {
		return nil, err
	}
	langs := []datatype.Lang{datatype.AnyLanguage}
	if lang != "" && !lang.IsWildcard() {
		langs = append(langs, lang)
	}
	for _, l := range langs {
		s, ok := e.Lookup(l)
		if !ok {
			continue
		}
		stored, ok, err := c.register(s, attr, kind)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := value.Merge(stored); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr, err)
		}
	}
	return value, nil
}

// register returns what s holds for attr: the decoded value, or a null of
// kind at the delete's version for a tombstone. ok is false when s never
// touched attr.
func (c *Codec) register(s *entity.Snapshot, attr string, kind datatype.Kind) (datatype.Value, bool, error) {
	if version, deleted := s.DeletedVersion(attr); deleted {
		null, err := c.registry.Instantiate(kind)
		if err != nil {
			return nil, false, err
		}
		if err := null.SetVersion(version); err != nil {
			return nil, false, err
		}
		return null, true, nil
	}
	raw, ok := s.Get(attr)
	if !ok {
		return nil, false, nil
	}
	stored, err := c.DecodeRaw(attr, raw, s.Lang())
	if err != nil {
		return nil, false, err
	}
	return stored, true, nil
}

func (c *Codec) translation(e *entity.Entity, attr string, lang datatype.Lang) (*datatype.Translation, error) {
	if lang == "" {
		return nil, entity.ErrLanguageNotSet
	}
	empty, err := datatype.NewTranslationIn(lang)
	if err != nil {
		return nil, err
	}
	s, ok := e.Lookup(lang)
	if !ok {
		return empty, nil
	}
	if version, deleted := s.DeletedVersion(attr); deleted {
		if err := empty.SetVersion(version); err != nil {
			return nil, err
		}
		return empty, nil
	}
	raw, ok := s.Get(attr)
	if !ok {
		return empty, nil
	}
	stored, err := c.DecodeRaw(attr, raw, s.Lang())
	if err != nil {
		return nil, err
	}
	switch v := stored.(type) {
	case *datatype.Translation:
		return v, nil
	case *datatype.LocalizedString:
		if t, ok := v.Translation(s.Lang()); ok {
			return t, nil
		}
		return empty, nil
	}
	return nil, fmt.Errorf("attribute %q holds %s: %w", attr, stored.Kind(), datatype.ErrIncomparableTypes)
}

// Localized collects attr's translations from every snapshot.
func (c *Codec) Localized(e *entity.Entity, attr string) (*datatype.LocalizedString, error) {
	kind, err := c.schema.TypeFor(attr)
	if err != nil {
		return nil, err
	}
	if !kind.LanguageBearing() {
		return nil, fmt.Errorf("attribute %q is %s: %w", attr, kind, datatype.ErrIncomparableTypes)
	}
	out := datatype.NewLocalizedString()
	for _, lang := range e.Languages() {
		if lang.IsWildcard() {
			continue
		}
		t, err := c.translation(e, attr, lang)
		if err != nil {
			return nil, err
		}
		text, ok := t.Text()
		if !ok {
			continue
		}
		if err := out.SetTranslation(t.Lang(), &text, t.Version()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Put writes input to attr. Without an explicit opts.Version the write lands
// one version above what the entity currently holds, so it supersedes it.
func (c *Codec) Put(e *entity.Entity, attr string, input any, opts datatype.WriteOptions) error {
	current, err := c.Value(e, attr, opts.Lang)
	if err != nil {
		return err
	}
	next := current.Clone()
	if opts.Version == nil {
		version := current.Version() + 1
		opts.Version = &version
	}
	if err := next.Set(input, opts); err != nil {
		return fmt.Errorf("attribute %q: %w", attr, err)
	}
	return c.PutValue(e, attr, next)
}

// PutValue stores v under attr. Language-neutral values go to the wildcard
// snapshot and translations to their own language's snapshot. A null value
// is stored as a tombstone.
func (c *Codec) PutValue(e *entity.Entity, attr string, v datatype.Value) error {
	kind, err := c.schema.TypeFor(attr)
	if err != nil {
		return err
	}
	if !compatible(kind, v.Kind()) {
		return fmt.Errorf("attribute %q expects %s, got %s: %w", attr, kind, v.Kind(), datatype.ErrInvalidValue)
	}

	switch typed := v.(type) {
	case *datatype.LocalizedString:
		for _, t := range typed.Translations() {
			if err := c.putTranslation(e, attr, t); err != nil {
				return err
			}
		}
		return nil
	case *datatype.Translation:
		return c.putTranslation(e, attr, typed)
	}
	return c.store(e, attr, v, datatype.AnyLanguage)
}

func (c *Codec) putTranslation(e *entity.Entity, attr string, t *datatype.Translation) error {
	if t.Lang() == "" {
		return fmt.Errorf("attribute %q: %w: translation has no language", attr, datatype.ErrMissingOption)
	}
	return c.store(e, attr, t, t.Lang())
}

func (c *Codec) store(e *entity.Entity, attr string, v datatype.Value, lang datatype.Lang) error {
	s, err := e.Snapshot(lang)
	if err != nil {
		return err
	}
	if isNull, _ := v.IsNull(datatype.ReadOptions{}); isNull {
		s.DelAt(attr, v.Version())
		return nil
	}
	data, err := c.EncodeValue(v)
	if err != nil {
		return err
	}
	s.SetRaw(attr, string(data))
	return nil
}

// Unset tombstones attr one version above what the entity holds, so the
// delete supersedes every value it has seen. Language-bearing attributes are
// removed from lang only; language-neutral ones from every snapshot that
// holds them.
func (c *Codec) Unset(e *entity.Entity, attr string, lang datatype.Lang) error {
	kind, err := c.schema.TypeFor(attr)
	if err != nil {
		return err
	}
	if kind.LanguageBearing() {
		if lang == "" {
			return entity.ErrLanguageNotSet
		}
		if lang.IsWildcard() {
			return datatype.ErrWildcardLanguage
		}
		current, err := c.translation(e, attr, lang)
		if err != nil {
			return err
		}
		s, err := e.Snapshot(lang)
		if err != nil {
			return err
		}
		s.DelAt(attr, current.Version()+1)
		return nil
	}

	latest := 0
	for _, l := range e.Languages() {
		s, _ := e.Lookup(l)
		stored, ok, err := c.register(s, attr, kind)
		if err != nil {
			return err
		}
		if ok {
			latest = max(latest, stored.Version())
		}
	}
	for _, l := range e.Languages() {
		if s, ok := e.Lookup(l); ok && s.Has(attr) {
			s.DelAt(attr, latest+1)
		}
	}
	s, err := e.Snapshot(datatype.AnyLanguage)
	if err != nil {
		return err
	}
	s.DelAt(attr, latest+1)
	return nil
}

// DecodeRaw turns a snapshot string into a typed value. Encoded values are
// decoded through the registry; anything else is coerced through the
// attribute's schema kind at version 0.
func (c *Codec) DecodeRaw(attr, raw string, lang datatype.Lang) (datatype.Value, error) {
	if v, ok, err := c.decodeEnvelope(attr, raw); ok || err != nil {
		return v, err
	}

	kind, err := c.schema.TypeFor(attr)
	if err != nil {
		return nil, err
	}
	if kind.LanguageBearing() {
		kind = datatype.KindTranslation
	}
	v, err := c.registry.Instantiate(kind)
	if err != nil {
		return nil, err
	}
	opts := datatype.WriteOptions{}
	if kind.LanguageBearing() {
		opts.Lang = lang
	}
	if err := v.Set(raw, opts); err != nil {
		return nil, fmt.Errorf("attribute %q in %s snapshot: %w", attr, lang, err)
	}
	return v, nil
}

// decodeEnvelope decodes raw when it looks like an encoded typed value.
// ok is false when raw is a plain string.
func (c *Codec) decodeEnvelope(attr, raw string) (datatype.Value, bool, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false, nil
	}
	m, err := decodeObject(trimmed)
	if err != nil {
		return nil, false, nil
	}
	if _, ok := m["type"]; !ok {
		return nil, false, nil
	}
	v, err := c.registry.Decode(m)
	if err != nil {
		return nil, true, fmt.Errorf("attribute %q: %w", attr, err)
	}
	if kind, err := c.schema.TypeFor(attr); err == nil && !compatible(kind, v.Kind()) {
		return nil, true, &datatype.HydrationError{
			Discriminator: v.Kind(),
			Field:         "type",
			Detail:        fmt.Sprintf("attribute %q expects %s", attr, kind),
		}
	}
	return v, true, nil
}
