package datatype

import (
	"fmt"
	"sort"
	"strings"
)

// LocalizedString maps languages to Translation registers. It has no version of
// its own: each language converges independently, and there is no total order.
type LocalizedString struct {
	translations map[Lang]*Translation
}

// NewLocalizedString returns an empty composite.
func NewLocalizedString() *LocalizedString {
	return &LocalizedString{translations: make(map[Lang]*Translation)}
}

func (l *LocalizedString) sealed() {}

func (l *LocalizedString) Kind() Kind {
	return KindLocalizedString
}

// entry returns the translation for lang, creating it on first sight.
func (l *LocalizedString) entry(lang Lang) *Translation {
	if l.translations == nil {
		l.translations = make(map[Lang]*Translation)
	}
	t, ok := l.translations[lang]
	if !ok {
		t = &Translation{lang: lang}
		l.translations[lang] = t
	}
	return t
}

// SetTranslation writes value (nil for null) at version for lang.
func (l *LocalizedString) SetTranslation(lang Lang, value *string, version int) error {
	var input any
	if value != nil {
		input = *value
	}
	return l.Set(input, AtVersion(lang, version))
}

// Translation returns the register for lang, if one exists.
func (l *LocalizedString) Translation(lang Lang) (*Translation, bool) {
	canonical, err := ParseLang(string(lang))
	if err != nil {
		return nil, false
	}
	t, ok := l.translations[canonical]
	return t, ok
}

// Translations returns the registers ordered by language.
func (l *LocalizedString) Translations() []*Translation {
	out := make([]*Translation, 0, len(l.translations))
	for _, lang := range l.Languages() {
		out = append(out, l.translations[lang])
	}
	return out
}

func (l *LocalizedString) Set(input any, opts WriteOptions) error {
	lang, err := concreteLang(opts.Lang)
	if err != nil {
		return err
	}
	probe := &Translation{lang: lang}
	if err := probe.Set(input, WriteOptions{Lang: lang, Version: opts.Version}); err != nil {
		return err
	}
	t := l.entry(lang)
	t.value = probe.value
	if opts.Version != nil {
		t.version = *opts.Version
	}
	return nil
}

func (l *LocalizedString) IsValid(input any, opts WriteOptions) bool {
	lang, err := concreteLang(opts.Lang)
	if err != nil {
		return false
	}
	return (&Translation{lang: lang}).IsValid(input, WriteOptions{Lang: lang, Version: opts.Version})
}

func (l *LocalizedString) readLang(lang Lang) (Lang, error) {
	if lang == "" {
		return "", fmt.Errorf("%w: lang", ErrMissingOption)
	}
	if lang.IsWildcard() {
		return "", ErrWildcardLanguage
	}
	return ParseLang(string(lang))
}

func (l *LocalizedString) Get(opts ReadOptions) (any, error) {
	lang, err := l.readLang(opts.Lang)
	if err != nil {
		return nil, err
	}
	t, ok := l.translations[lang]
	if !ok || t.value == nil {
		return nil, nil
	}
	return *t.value, nil
}

func (l *LocalizedString) IsNull(opts ReadOptions) (bool, error) {
	lang, err := l.readLang(opts.Lang)
	if err != nil {
		return false, err
	}
	t, ok := l.translations[lang]
	return !ok || t.value == nil, nil
}

// Languages lists every language with a register, tombstoned ones included.
func (l *LocalizedString) Languages() []Lang {
	langs := make([]Lang, 0, len(l.translations))
	for lang := range l.translations {
		langs = append(langs, lang)
	}
	return sortLangs(langs)
}

// Version is always 0; versions live on each translation.
func (l *LocalizedString) Version() int {
	return 0
}

func (l *LocalizedString) SetVersion(int) error {
	return ErrVersionNotApplicable
}

func (l *LocalizedString) CanMergeWith(other Value) bool {
	_, ok := other.(*LocalizedString)
	return ok
}

func (l *LocalizedString) Equal(other Value) (bool, error) {
	if _, ok := other.(*LocalizedString); !ok {
		return false, incomparable(l.Kind(), other)
	}
	return false, fmt.Errorf("%w: %s", ErrComparisonUnsupported, KindLocalizedString)
}

func (l *LocalizedString) GreaterThan(other Value) (bool, error) {
	if _, ok := other.(*LocalizedString); !ok {
		return false, incomparable(l.Kind(), other)
	}
	return false, fmt.Errorf("%w: %s", ErrComparisonUnsupported, KindLocalizedString)
}

// Merge merges every language of other into the matching register of l,
// creating empty registers for languages l has not seen.
func (l *LocalizedString) Merge(other Value) error {
	o, ok := other.(*LocalizedString)
	if !ok {
		return mergeUnsupported(l.Kind(), other)
	}
	for _, lang := range o.Languages() {
		if err := l.entry(lang).Merge(o.translations[lang]); err != nil {
			return err
		}
	}
	return nil
}

func (l *LocalizedString) ToMap() map[string]any {
	langs := l.Languages()
	val := make(map[string]any, len(langs))
	names := make([]string, 0, len(langs))
	for _, lang := range langs {
		val[string(lang)] = l.translations[lang].ToMap()
		names = append(names, string(lang))
	}
	return map[string]any{
		"type": string(KindLocalizedString),
		"val":  val,
		"lang": names,
	}
}

func (l *LocalizedString) FromMap(m map[string]any) error {
	val, _, err := readEnvelope(KindLocalizedString, m)
	if err != nil {
		return err
	}
	fresh := NewLocalizedString()
	if val == nil {
		*l = *fresh
		return nil
	}
	entries, ok := val.(map[string]any)
	if !ok {
		return &HydrationError{Discriminator: KindLocalizedString, Field: "val", Detail: fmt.Sprintf("not an object: %T", val)}
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry, ok := entries[key].(map[string]any)
		if !ok {
			return &HydrationError{Discriminator: KindLocalizedString, Field: "val", Detail: fmt.Sprintf("%s: not an object", key)}
		}
		t := NewTranslation()
		if err := t.FromMap(entry); err != nil {
			return &HydrationError{Discriminator: KindLocalizedString, Field: "val", Detail: key, Err: err}
		}
		want, err := ParseLang(key)
		if err != nil || want != t.lang {
			return &HydrationError{Discriminator: KindLocalizedString, Field: "val", Detail: fmt.Sprintf("key %q holds %q translation", key, t.lang)}
		}
		if _, dup := fresh.translations[want]; dup {
			return &HydrationError{Discriminator: KindLocalizedString, Field: "val", Detail: fmt.Sprintf("duplicate language %q", want)}
		}
		fresh.translations[want] = t
	}
	*l = *fresh
	return nil
}

func (l *LocalizedString) Clone() Value {
	c := NewLocalizedString()
	for lang, t := range l.translations {
		c.translations[lang] = t.Clone().(*Translation)
	}
	return c
}

func (l *LocalizedString) String() string {
	parts := make([]string, 0, len(l.translations))
	for _, t := range l.Translations() {
		parts = append(parts, fmt.Sprintf("%s=%q", t.lang, t.String()))
	}
	return strings.Join(parts, " ")
}
