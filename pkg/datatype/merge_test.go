package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mimeAt(t *testing.T, value string, version int) *MimeType {
	t.Helper()
	m := NewMimeType()
	require.NoError(t, m.Set(value, AtVersion("", version)))
	return m
}

func TestMerge_TieBreak(t *testing.T) {
	jpeg := mimeAt(t, "image/jpeg", 10)
	png := mimeAt(t, "image/png", 10)

	require.NoError(t, jpeg.Merge(png))
	got, _ := jpeg.Get(ReadOptions{})
	assert.Equal(t, "image/png", got)
	assert.Equal(t, 10, jpeg.Version())

	jpeg = mimeAt(t, "image/jpeg", 10)
	require.NoError(t, png.Merge(jpeg))
	got, _ = png.Get(ReadOptions{})
	assert.Equal(t, "image/png", got)
	assert.Equal(t, 10, png.Version())
}

func TestMerge_Monotonic(t *testing.T) {
	t.Run("newer incoming wins", func(t *testing.T) {
		old := mimeAt(t, "text/plain", 1)
		require.NoError(t, old.Merge(mimeAt(t, "image/gif", 5)))
		got, _ := old.Get(ReadOptions{})
		assert.Equal(t, "image/gif", got)
		assert.Equal(t, 5, old.Version())
	})

	t.Run("stale incoming ignored", func(t *testing.T) {
		current := mimeAt(t, "image/gif", 5)
		require.NoError(t, current.Merge(mimeAt(t, "text/plain", 1)))
		got, _ := current.Get(ReadOptions{})
		assert.Equal(t, "image/gif", got)
		assert.Equal(t, 5, current.Version())
	})

	t.Run("newer null wins", func(t *testing.T) {
		current := mimeAt(t, "image/gif", 5)
		deleted := NewMimeType()
		require.NoError(t, deleted.Set(nil, AtVersion("", 6)))

		require.NoError(t, current.Merge(deleted))
		isNull, _ := current.IsNull(ReadOptions{})
		assert.True(t, isNull)
		assert.Equal(t, 6, current.Version())
	})

	t.Run("value beats null at equal version", func(t *testing.T) {
		deleted := NewMimeType()
		require.NoError(t, deleted.SetVersion(3))
		require.NoError(t, deleted.Merge(mimeAt(t, "image/gif", 3)))
		got, _ := deleted.Get(ReadOptions{})
		assert.Equal(t, "image/gif", got)
	})
}

func TestMerge_Idempotent(t *testing.T) {
	registry := NewDefaultRegistry()
	inputs := map[Kind]any{
		KindBoolean:  true,
		KindInteger:  5,
		KindNumeric:  2.5,
		KindDateTime: "2024-05-01T10:00:00Z",
		KindMimeType: "application/json",
		KindURL:      "https://example.com",
		KindEmail:    "a@example.com",
		KindFileSize: "1 MB",
	}
	for kind, input := range inputs {
		t.Run(string(kind), func(t *testing.T) {
			v, err := registry.Instantiate(kind)
			require.NoError(t, err)
			require.NoError(t, v.Set(input, AtVersion("", 4)))
			before := v.ToMap()

			require.NoError(t, v.Merge(v.Clone()))
			assert.Equal(t, before, v.ToMap())
		})
	}

	t.Run("localized", func(t *testing.T) {
		l := NewLocalizedString()
		require.NoError(t, l.SetTranslation("en", ptr("Dog"), 2))
		require.NoError(t, l.SetTranslation("fr", nil, 7))
		before := l.ToMap()

		require.NoError(t, l.Merge(l.Clone()))
		assert.Equal(t, before, l.ToMap())
	})
}

func TestMerge_OrderIndependent(t *testing.T) {
	a := NewInteger()
	require.NoError(t, a.Set(3, AtVersion("", 7)))
	b := NewInteger()
	require.NoError(t, b.Set(9, AtVersion("", 7)))

	ab := a.Clone()
	require.NoError(t, ab.Merge(b))
	ba := b.Clone()
	require.NoError(t, ba.Merge(a))

	assert.Equal(t, ab.ToMap(), ba.ToMap())
}

func TestMerge_Unsupported(t *testing.T) {
	err := NewInteger().Merge(NewNumeric())
	assert.ErrorIs(t, err, ErrMergeUnsupported)

	err = NewURL().Merge(NewEmail())
	assert.ErrorIs(t, err, ErrMergeUnsupported)

	err = NewLocalizedString().Merge(NewTranslation())
	assert.ErrorIs(t, err, ErrMergeUnsupported)
}
