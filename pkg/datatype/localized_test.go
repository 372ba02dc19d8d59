package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslation_LanguageBinding(t *testing.T) {
	tr := NewTranslation()
	assert.Empty(t, tr.Languages())

	assert.ErrorIs(t, tr.Set("Dog", WriteOptions{}), ErrMissingOption)
	assert.ErrorIs(t, tr.Set("Dog", At(AnyLanguage)), ErrWildcardLanguage)
	assert.ErrorIs(t, tr.Set("Dog", At("not a language!")), ErrInvalidValue)

	require.NoError(t, tr.Set("Dog", At("en")))
	assert.Equal(t, Lang("en"), tr.Lang())
	assert.Equal(t, []Lang{"en"}, tr.Languages())

	err := tr.Set("Chien", At("fr"))
	assert.ErrorIs(t, err, ErrLanguageImmutable)
	text, _ := tr.Text()
	assert.Equal(t, "Dog", text)

	assert.ErrorIs(t, tr.Set(42, At("en")), ErrInvalidValue)
}

func TestTranslation_ReadScope(t *testing.T) {
	tr, err := NewTranslationIn("en")
	require.NoError(t, err)
	require.NoError(t, tr.Set("Dog", At("en")))

	got, err := tr.Get(In("en"))
	require.NoError(t, err)
	assert.Equal(t, "Dog", got)

	got, err = tr.Get(In("fr"))
	require.NoError(t, err)
	assert.Nil(t, got)

	isNull, err := tr.IsNull(In("fr"))
	require.NoError(t, err)
	assert.True(t, isNull)

	got, err = tr.Get(ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Dog", got)
}

func TestTranslation_MergeAcrossLanguages(t *testing.T) {
	en, _ := NewTranslationIn("en")
	fr, _ := NewTranslationIn("fr")
	assert.ErrorIs(t, en.Merge(fr), ErrMergeUnsupported)

	unbound := NewTranslation()
	require.NoError(t, fr.Set("Chien", AtVersion("fr", 2)))
	require.NoError(t, unbound.Merge(fr))
	assert.Equal(t, Lang("fr"), unbound.Lang())
	text, _ := unbound.Text()
	assert.Equal(t, "Chien", text)
}

func TestTranslation_FromMap(t *testing.T) {
	tr := NewTranslation()
	err := tr.FromMap(map[string]any{"type": "TRANSLATION", "val": "Dog", "ver": 1})
	assert.ErrorIs(t, err, ErrHydration)

	require.NoError(t, tr.FromMap(map[string]any{"type": "TRANSLATION", "val": "Dog", "ver": 1, "lang": "en"}))
	assert.Equal(t, Lang("en"), tr.Lang())
	assert.Equal(t, 1, tr.Version())

	err = tr.FromMap(map[string]any{"type": "TRANSLATION", "val": "Chien", "ver": 3, "lang": "fr"})
	assert.ErrorIs(t, err, ErrHydration)
	assert.ErrorIs(t, err, ErrLanguageImmutable)
	assert.Equal(t, Lang("en"), tr.Lang())
}

func TestLocalizedString_PerLanguageIndependence(t *testing.T) {
	a := NewLocalizedString()
	require.NoError(t, a.SetTranslation("en", ptr("Dog"), 1))
	require.NoError(t, a.SetTranslation("fr", ptr("Chien"), 5))

	b := NewLocalizedString()
	require.NoError(t, b.SetTranslation("en", ptr("Hound"), 4))
	require.NoError(t, b.SetTranslation("fr", ptr("Toutou"), 2))
	require.NoError(t, b.SetTranslation("de", ptr("Hund"), 0))

	require.NoError(t, a.Merge(b))

	assert.Equal(t, []Lang{"de", "en", "fr"}, a.Languages())
	for lang, want := range map[Lang]string{"en": "Hound", "fr": "Chien", "de": "Hund"} {
		got, err := a.Get(In(lang))
		require.NoError(t, err)
		assert.Equal(t, want, got, lang)
	}
	en, ok := a.Translation("en")
	require.True(t, ok)
	assert.Equal(t, 4, en.Version())
	fr, _ := a.Translation("fr")
	assert.Equal(t, 5, fr.Version())
}

func TestLocalizedString_Options(t *testing.T) {
	l := NewLocalizedString()

	assert.ErrorIs(t, l.Set("Dog", WriteOptions{}), ErrMissingOption)
	assert.ErrorIs(t, l.Set("Dog", At(AnyLanguage)), ErrWildcardLanguage)

	_, err := l.Get(ReadOptions{})
	assert.ErrorIs(t, err, ErrMissingOption)
	_, err = l.Get(In(AnyLanguage))
	assert.ErrorIs(t, err, ErrWildcardLanguage)
	_, err = l.IsNull(ReadOptions{})
	assert.ErrorIs(t, err, ErrMissingOption)

	isNull, err := l.IsNull(In("en"))
	require.NoError(t, err)
	assert.True(t, isNull)

	assert.Equal(t, 0, l.Version())
	assert.ErrorIs(t, l.SetVersion(1), ErrVersionNotApplicable)

	_, err = l.Equal(NewLocalizedString())
	assert.ErrorIs(t, err, ErrComparisonUnsupported)
	_, err = l.GreaterThan(NewInteger())
	assert.ErrorIs(t, err, ErrIncomparableTypes)
}

func TestLocalizedString_CanonicalLanguages(t *testing.T) {
	l := NewLocalizedString()
	require.NoError(t, l.Set("Colour", At("EN-gb")))

	assert.Equal(t, []Lang{"en-GB"}, l.Languages())
	got, err := l.Get(In("en-GB"))
	require.NoError(t, err)
	assert.Equal(t, "Colour", got)
}

func TestLocalizedString_RoundTrip(t *testing.T) {
	l := NewLocalizedString()
	require.NoError(t, l.SetTranslation("en", ptr("Dog"), 3))
	require.NoError(t, l.SetTranslation("fr", nil, 9))

	m := l.ToMap()
	assert.Equal(t, []string{"en", "fr"}, m["lang"])

	decoded := NewLocalizedString()
	require.NoError(t, decoded.FromMap(m))
	assert.Equal(t, m, decoded.ToMap())
	assert.Equal(t, `en="Dog" fr=""`, decoded.String())
}

func TestLocalizedString_FromMapRejectsMismatchedKey(t *testing.T) {
	l := NewLocalizedString()
	err := l.FromMap(map[string]any{
		"type": "LOCALIZED_STRING",
		"val": map[string]any{
			"en": map[string]any{"type": "TRANSLATION", "val": "Chien", "ver": 1, "lang": "fr"},
		},
	})
	assert.ErrorIs(t, err, ErrHydration)
	assert.Empty(t, l.Languages())
}

func TestLocalizedString_CloneIsDeep(t *testing.T) {
	l := NewLocalizedString()
	require.NoError(t, l.SetTranslation("en", ptr("Dog"), 1))

	c := l.Clone().(*LocalizedString)
	require.NoError(t, c.SetTranslation("en", ptr("Cat"), 2))

	got, _ := l.Get(In("en"))
	assert.Equal(t, "Dog", got)
}

func TestLocalizedString_MergeAdoptsNewerPerLanguage(t *testing.T) {
	x := NewLocalizedString()
	require.NoError(t, x.SetTranslation("en", ptr("Dog"), 10))
	require.NoError(t, x.SetTranslation("es", ptr("Perro"), 100))

	y := NewLocalizedString()
	require.NoError(t, y.SetTranslation("en", ptr("Apple"), 20))
	require.NoError(t, y.SetTranslation("es", ptr("Manzana"), 5))
	require.NoError(t, y.SetTranslation("fr", ptr("Chienne"), 1))

	require.NoError(t, x.Merge(y))

	testCases := []struct {
		lang    Lang
		want    string
		version int
	}{
		{"en", "Apple", 20},
		{"es", "Perro", 100},
		{"fr", "Chienne", 1},
	}
	for _, tc := range testCases {
		tr, ok := x.Translation(tc.lang)
		require.True(t, ok, tc.lang)
		text, _ := tr.Text()
		assert.Equal(t, tc.want, text)
		assert.Equal(t, tc.version, tr.Version())
	}
}
