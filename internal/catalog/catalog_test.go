package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/quire/internal/filter"
	"github.com/dyluth/quire/internal/store"
	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/entity"
	"github.com/dyluth/quire/pkg/identifier"
	"github.com/dyluth/quire/pkg/schema"
)

func setup(t *testing.T) (*store.Client, *codec.Codec) {
	mr := miniredis.RunT(t)
	client, err := store.NewClient(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, codec.New(schema.Core(datatype.NewDefaultRegistry()))
}

func save(t *testing.T, client *store.Client, c *codec.Codec, id string, titles map[datatype.Lang]string) {
	t.Helper()
	e := entity.FromIdentifier(identifier.MustParse(id))
	for lang, title := range titles {
		require.NoError(t, c.Put(e, schema.Title, title, datatype.At(lang)))
	}
	require.NoError(t, c.Put(e, schema.FileSize, 1024, datatype.WriteOptions{}))
	body, err := c.Marshal(e)
	require.NoError(t, err)
	_, err = client.Put(context.Background(), id, body, "")
	require.NoError(t, err)
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("empty namespace - default format", func(t *testing.T) {
		client, c := setup(t)
		var buf bytes.Buffer
		require.NoError(t, List(ctx, client, c, OutputFormatDefault, nil, &buf))
		assert.Contains(t, buf.String(), "No entities found in namespace 'test'")
	})

	t.Run("table shows titles", func(t *testing.T) {
		client, c := setup(t)
		save(t, client, c, "1-5-00000000000000aa", map[datatype.Lang]string{"en": "Dog", "es": "Perro"})
		save(t, client, c, "2-6-00000000000000bb", map[datatype.Lang]string{"fr": "Chienne"})

		var buf bytes.Buffer
		require.NoError(t, List(ctx, client, c, OutputFormatDefault, nil, &buf))
		out := buf.String()
		assert.Contains(t, out, "1-5-00000000000000aa")
		assert.Contains(t, out, "Dog")
		assert.Contains(t, out, "Chienne", "falls back to the first language with a title")
		assert.Contains(t, out, "en,es")
		assert.Contains(t, out, "2 entities found")
	})

	t.Run("filters by type and title language", func(t *testing.T) {
		client, c := setup(t)
		save(t, client, c, "1-5-00000000000000aa", map[datatype.Lang]string{"en": "Dog", "es": "Perro"})
		save(t, client, c, "2-6-00000000000000bb", map[datatype.Lang]string{"fr": "Chienne"})

		var buf bytes.Buffer
		err := List(ctx, client, c, OutputFormatDefault, &filter.Criteria{EntityType: 5, Lang: "es"}, &buf)
		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "Perro")
		assert.NotContains(t, out, "2-6-00000000000000bb")
		assert.Contains(t, out, "1 entity found")
	})

	t.Run("jsonl", func(t *testing.T) {
		client, c := setup(t)
		save(t, client, c, "1-5-00000000000000aa", map[datatype.Lang]string{"en": "Dog"})
		save(t, client, c, "1-5-00000000000000cc", map[datatype.Lang]string{"en": "Cat"})

		var buf bytes.Buffer
		require.NoError(t, List(ctx, client, c, OutputFormatJSONL, nil, &buf))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		for _, line := range lines {
			var doc codec.Document
			require.NoError(t, json.Unmarshal([]byte(line), &doc))
			assert.Equal(t, codec.DocumentType, doc.Type)
			require.NotNil(t, doc.Snapshot.SnapshotID, "revision is carried as snapshot_id")
		}
	})

	t.Run("skips malformed documents", func(t *testing.T) {
		client, c := setup(t)
		save(t, client, c, "1-5-00000000000000aa", map[datatype.Lang]string{"en": "Dog"})
		_, err := client.Put(ctx, "1-5-00000000000000dd", []byte(`{"type":"nope"}`), "")
		require.NoError(t, err)

		entries, err := Collect(ctx, client, c, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "1-5-00000000000000aa", entries[0].ID)
	})

	t.Run("unknown format", func(t *testing.T) {
		client, c := setup(t)
		err := List(ctx, client, c, OutputFormat("xml"), nil, &bytes.Buffer{})
		assert.ErrorContains(t, err, "unknown output format")
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("pretty prints document", func(t *testing.T) {
		client, c := setup(t)
		save(t, client, c, "1-5-00000000000000aa", map[datatype.Lang]string{"en": "Dog"})

		var buf bytes.Buffer
		require.NoError(t, Get(ctx, client, c, "1-5-00000000000000aa", &buf))
		assert.Contains(t, buf.String(), "\n  \"type\": \"ENTITY\"")

		e, err := c.Unmarshal(buf.Bytes())
		require.NoError(t, err)
		id, ok := e.Identifier()
		require.True(t, ok)
		assert.Equal(t, "1-5-00000000000000aa", id.String())
	})

	t.Run("not found", func(t *testing.T) {
		client, c := setup(t)
		err := Get(ctx, client, c, "1-5-00000000000000aa", &bytes.Buffer{})
		assert.True(t, IsNotFound(err))
		assert.EqualError(t, err, "entity with ID '1-5-00000000000000aa' not found")
	})

	t.Run("invalid identifier", func(t *testing.T) {
		client, c := setup(t)
		err := Get(ctx, client, c, "not-an-id", &bytes.Buffer{})
		assert.ErrorIs(t, err, identifier.ErrInvalidIdentifierFormat)
	})
}

func TestFormatTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"empty", "", "-"},
		{"short", "Dog", "Dog"},
		{"first line only", "Dog\nsecond", "Dog"},
		{"trimmed", "  Dog  ", "Dog"},
		{"exactly 40", strings.Repeat("a", 40), strings.Repeat("a", 40)},
		{"truncated", strings.Repeat("a", 41), strings.Repeat("a", 37) + "..."},
		{"multibyte", strings.Repeat("ñ", 41), strings.Repeat("ñ", 37) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTitle(tt.title))
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-", formatRevision(""))
	assert.Equal(t, "r3", formatRevision("3-0123456789abcdef"))

	assert.Equal(t, "*", formatLanguages([]datatype.Lang{datatype.AnyLanguage}))
	assert.Equal(t, "en,fr", formatLanguages([]datatype.Lang{datatype.AnyLanguage, "en", "fr"}))

	assert.Equal(t, "-", formatTimestamp(0))
	assert.Equal(t, "5m ago", formatTimestamp(time.Now().Add(-5*time.Minute-time.Second).UnixMilli()))
	assert.Equal(t, "2d ago", formatTimestamp(time.Now().Add(-49*time.Hour).UnixMilli()))
}
