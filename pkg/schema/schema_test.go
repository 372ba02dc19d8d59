package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/quire/pkg/datatype"
)

func TestCore_TypeFor(t *testing.T) {
	s := Core(datatype.NewDefaultRegistry())

	testCases := []struct {
		name string
		want datatype.Kind
	}{
		{FileMimeType, datatype.KindMimeType},
		{FileSize, datatype.KindFileSize},
		{FileURL, datatype.KindURL},
		{Title, datatype.KindTranslation},
		{PublishedAt, datatype.KindDateTime},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := s.TypeFor(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, kind)
		})
	}

	_, err := s.TypeFor("core.file.colour")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestDefine(t *testing.T) {
	s := New(datatype.NewDefaultRegistry())

	require.NoError(t, s.Define("shop.price", datatype.KindNumeric))
	kind, err := s.TypeFor("shop.price")
	require.NoError(t, err)
	assert.Equal(t, datatype.KindNumeric, kind)

	require.NoError(t, s.Define("shop.price", datatype.KindInteger))
	kind, _ = s.TypeFor("shop.price")
	assert.Equal(t, datatype.KindInteger, kind)

	for _, bad := range []string{"price", "Shop.price", "shop..price", "shop.price.", "1shop.price"} {
		assert.ErrorIs(t, s.Define(bad, datatype.KindNumeric), ErrInvalidAttributeName, bad)
	}
	assert.ErrorIs(t, s.Define("shop.colour", "COLOUR"), datatype.ErrUnknownType)

	assert.Equal(t, []string{"shop.price"}, s.Attributes())
}

func TestNewValue(t *testing.T) {
	s := Core(datatype.NewDefaultRegistry())

	v, err := s.NewValue(FileSize)
	require.NoError(t, err)
	assert.IsType(t, &datatype.FileSize{}, v)
	isNull, err := v.IsNull(datatype.ReadOptions{})
	require.NoError(t, err)
	assert.True(t, isNull)

	_, err = s.NewValue("core.nope")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestAttributes_Sorted(t *testing.T) {
	names := Core(datatype.NewDefaultRegistry()).Attributes()
	assert.Len(t, names, 10)
	assert.IsNonDecreasing(t, names)
}
