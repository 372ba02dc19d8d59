package blob

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/quire/pkg/identifier"
)

func TestPathFor(t *testing.T) {
	id := identifier.MustParse("3-42-00000000000000ff")

	p, err := PathFor(id, "cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, "3/42/00000000000000ff/cover.jpg", p)

	p, err = PathFor(id, "thumbs/./small.jpg")
	require.NoError(t, err)
	assert.Equal(t, "3/42/00000000000000ff/thumbs/small.jpg", p)

	_, err = PathFor(id, "../../escape")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a/b.txt", want: "a/b.txt"},
		{in: `a\b.txt`, want: "a/b.txt"},
		{in: "a/../b.txt", want: "b.txt"},
		{in: "", wantErr: true},
		{in: ".", wantErr: true},
		{in: "..", wantErr: true},
		{in: "../x", wantErr: true},
		{in: "a/../../x", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFSStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	s, err := NewFSStore(fsys, "/data/blobs", "https://cdn.example.com/media")
	require.NoError(t, err)

	url, err := s.Put(ctx, "1/2/00000000000000aa/a.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/1/2/00000000000000aa/a.txt", url)

	data, err := s.Get(ctx, "1/2/00000000000000aa/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	exists, err := afero.Exists(fsys, "/data/blobs/1/2/00000000000000aa/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	entries, err := afero.ReadDir(fsys, "/data/blobs/1/2/00000000000000aa")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	_, err = s.Put(ctx, "1/2/00000000000000aa/a.txt", []byte("replaced"))
	require.NoError(t, err)
	data, err = s.Get(ctx, "1/2/00000000000000aa/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))

	require.NoError(t, s.Delete(ctx, "1/2/00000000000000aa/a.txt"))
	require.NoError(t, s.Delete(ctx, "1/2/00000000000000aa/a.txt"))
	_, err = s.Get(ctx, "1/2/00000000000000aa/a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_FileURLs(t *testing.T) {
	s, err := NewFSStore(afero.NewMemMapFs(), "/srv/blobs", "")
	require.NoError(t, err)

	url, err := s.URLFor("x/y.bin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file:///"))
	assert.True(t, strings.HasSuffix(url, "/srv/blobs/x/y.bin"))
}

func TestFSStore_RejectsEscapes(t *testing.T) {
	s, err := NewFSStore(afero.NewMemMapFs(), "/srv/blobs", "")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../outside", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = s.URLFor("/abs")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestNewFSStore_Validation(t *testing.T) {
	_, err := NewFSStore(afero.NewMemMapFs(), "", "")
	assert.Error(t, err)

	_, err = NewFSStore(afero.NewMemMapFs(), "/x", "not a url")
	assert.ErrorContains(t, err, "invalid blob base_url")
}

func TestFSStore_CancelledContext(t *testing.T) {
	s, err := NewFSStore(afero.NewMemMapFs(), "/srv", "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Put(ctx, "a", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
