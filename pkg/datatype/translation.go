package datatype

import (
	"fmt"
	"strings"
)

// Translation is a single-language string register. Its language is assigned by
// the first write and is immutable afterwards.
type Translation struct {
	register[string]
	lang Lang
}

// NewTranslation returns a null Translation with no language.
func NewTranslation() *Translation {
	return &Translation{}
}

// NewTranslationIn returns a null Translation bound to lang.
func NewTranslationIn(lang Lang) (*Translation, error) {
	l, err := concreteLang(lang)
	if err != nil {
		return nil, err
	}
	return &Translation{lang: l}, nil
}

func (t *Translation) sealed() {}

func (t *Translation) Kind() Kind {
	return KindTranslation
}

// Lang returns the assigned language, or "" before the first write.
func (t *Translation) Lang() Lang {
	return t.lang
}

// Text returns the string value and whether it is set.
func (t *Translation) Text() (string, bool) {
	if t.value == nil {
		return "", false
	}
	return *t.value, true
}

func (t *Translation) prepare(input any, opts WriteOptions) (Lang, *string, error) {
	if err := checkVersion(opts); err != nil {
		return "", nil, err
	}
	lang, err := concreteLang(opts.Lang)
	if err != nil {
		return "", nil, err
	}
	if t.lang != "" && t.lang != lang {
		return "", nil, fmt.Errorf("%w: %s register cannot take %s", ErrLanguageImmutable, t.lang, lang)
	}
	input = normalizeInput(input)
	if input == nil {
		return lang, nil, nil
	}
	s, ok := asString(input)
	if !ok {
		return "", nil, invalidValue(KindTranslation, input)
	}
	return lang, &s, nil
}

func (t *Translation) Set(input any, opts WriteOptions) error {
	lang, value, err := t.prepare(input, opts)
	if err != nil {
		return err
	}
	t.lang = lang
	t.value = value
	if opts.Version != nil {
		t.version = *opts.Version
	}
	return nil
}

func (t *Translation) IsValid(input any, opts WriteOptions) bool {
	_, _, err := t.prepare(input, opts)
	return err == nil
}

// reads reports whether a read scoped to lang addresses this register.
// An empty or wildcard lang addresses any register.
func (t *Translation) reads(lang Lang) bool {
	if lang == "" || lang.IsWildcard() {
		return true
	}
	l, err := ParseLang(string(lang))
	return err == nil && l == t.lang
}

func (t *Translation) Get(opts ReadOptions) (any, error) {
	if t.value == nil || !t.reads(opts.Lang) {
		return nil, nil
	}
	return *t.value, nil
}

func (t *Translation) IsNull(opts ReadOptions) (bool, error) {
	return t.value == nil || !t.reads(opts.Lang), nil
}

func (t *Translation) Languages() []Lang {
	if t.lang == "" {
		return []Lang{}
	}
	return []Lang{t.lang}
}

func (t *Translation) CanMergeWith(other Value) bool {
	_, ok := other.(*Translation)
	return ok
}

func (t *Translation) Equal(other Value) (bool, error) {
	o, ok := other.(*Translation)
	if !ok {
		return false, incomparable(t.Kind(), other)
	}
	return compareOptional(t.value, o.value, strings.Compare) == 0, nil
}

func (t *Translation) GreaterThan(other Value) (bool, error) {
	o, ok := other.(*Translation)
	if !ok {
		return false, incomparable(t.Kind(), other)
	}
	return compareOptional(t.value, o.value, strings.Compare) > 0, nil
}

// Merge applies the versioned last-writer-wins rule with a lexicographic
// tie-break. Registers of different languages do not merge.
func (t *Translation) Merge(other Value) error {
	o, ok := other.(*Translation)
	if !ok {
		return mergeUnsupported(t.Kind(), other)
	}
	if t.lang != "" && o.lang != "" && t.lang != o.lang {
		return fmt.Errorf("%w: %s translation with %s translation", ErrMergeUnsupported, t.lang, o.lang)
	}
	if t.lang == "" {
		t.lang = o.lang
	}
	mergeRegister(&t.register, &o.register, strings.Compare)
	return nil
}

func (t *Translation) ToMap() map[string]any {
	m := map[string]any{
		"type": string(KindTranslation),
		"val":  nil,
		"ver":  t.version,
		"lang": nil,
	}
	if t.value != nil {
		m["val"] = *t.value
	}
	if t.lang != "" {
		m["lang"] = string(t.lang)
	}
	return m
}

func (t *Translation) FromMap(m map[string]any) error {
	val, version, err := readEnvelope(KindTranslation, m)
	if err != nil {
		return err
	}
	rawLang, ok := m["lang"]
	if !ok {
		return &HydrationError{Discriminator: KindTranslation, Field: "lang", Detail: "missing"}
	}
	lang, ok := rawLang.(string)
	if !ok || lang == "" {
		return &HydrationError{Discriminator: KindTranslation, Field: "lang", Detail: fmt.Sprintf("not a language: %v", rawLang)}
	}
	fresh := &Translation{lang: t.lang}
	if err := fresh.Set(val, AtVersion(Lang(lang), version)); err != nil {
		return &HydrationError{Discriminator: KindTranslation, Field: "val", Detail: "rejected", Err: err}
	}
	*t = *fresh
	return nil
}

func (t *Translation) Clone() Value {
	return &Translation{
		register: register[string]{value: clonePtr(t.value), version: t.version},
		lang:     t.lang,
	}
}

func (t *Translation) String() string {
	if t.value == nil {
		return ""
	}
	return *t.value
}
