package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/quire/internal/store"
)

func setupStore(t *testing.T, ids ...string) *store.Client {
	mr := miniredis.RunT(t)
	client, err := store.NewClient(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	for _, id := range ids {
		_, err := client.Put(context.Background(), id, []byte(`{}`), "")
		require.NoError(t, err)
	}
	return client
}

func TestResolveEntityID(t *testing.T) {
	ctx := context.Background()
	client := setupStore(t,
		"1-5-00000000000000aa",
		"1-5-00000000000000ab",
		"12-7-00000000000000cc",
	)

	t.Run("full identifier", func(t *testing.T) {
		id, err := ResolveEntityID(ctx, client, "1-5-00000000000000AA")
		require.NoError(t, err)
		assert.Equal(t, "1-5-00000000000000aa", id)
	})

	t.Run("full identifier not stored", func(t *testing.T) {
		_, err := ResolveEntityID(ctx, client, "9-9-00000000000000aa")
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("unique prefix", func(t *testing.T) {
		id, err := ResolveEntityID(ctx, client, "12-7-0000")
		require.NoError(t, err)
		assert.Equal(t, "12-7-00000000000000cc", id)
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := ResolveEntityID(ctx, client, "1-5-00000000000000a")
		require.True(t, IsAmbiguousError(err))
		amb := err.(*AmbiguousError)
		assert.Equal(t, []string{"1-5-00000000000000aa", "1-5-00000000000000ab"}, amb.Matches)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := ResolveEntityID(ctx, client, "3-3-0000")
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("too short", func(t *testing.T) {
		_, err := ResolveEntityID(ctx, client, "1-5-0")
		assert.ErrorContains(t, err, "at least 6 characters")
	})
}

func TestFormatAmbiguousError(t *testing.T) {
	matches := make([]string, 12)
	for i := range matches {
		matches[i] = fmt.Sprintf("1-1-%016x", i)
	}
	msg := FormatAmbiguousError(&AmbiguousError{ShortID: "1-1-00", Matches: matches})
	assert.Contains(t, msg, "matches 12 entities")
	assert.Contains(t, msg, "  1-1-0000000000000009\n")
	assert.NotContains(t, msg, "1-1-000000000000000a")
	assert.Contains(t, msg, "...and 2 more")
}
