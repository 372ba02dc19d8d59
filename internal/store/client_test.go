package store

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/quire/pkg/identifier"
)

// setupTestClient creates a client connected to a miniredis instance.
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	t.Run("creates client", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.Equal(t, "test", client.Namespace())
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.ErrorContains(t, err, "namespace cannot be empty")
	})

	t.Run("rejects bad url", func(t *testing.T) {
		_, err := NewClientFromURL("http://nope", "test")
		assert.Error(t, err)
	})
}

func TestPutGet(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	_, err := client.Get(ctx, "1-2-00000000000000ff")
	assert.True(t, IsNotFound(err))

	rev1, err := client.Put(ctx, "1-2-00000000000000ff", []byte(`{"a":1}`), "")
	require.NoError(t, err)
	assert.Equal(t, 1, RevisionGeneration(rev1))

	doc, err := client.Get(ctx, "1-2-00000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, rev1, doc.Revision)
	assert.Equal(t, `{"a":1}`, string(doc.Body))
	assert.NotZero(t, doc.UpdatedAtMs)

	rev2, err := client.Put(ctx, "1-2-00000000000000ff", []byte(`{"a":2}`), rev1)
	require.NoError(t, err)
	assert.Equal(t, 2, RevisionGeneration(rev2))
	assert.NotEqual(t, rev1, rev2)

	assert.Equal(t, rev2, mr.HGet(EntityKey("test", "1-2-00000000000000ff"), "revision"))
}

func TestPut_Conflicts(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	rev, err := client.Put(ctx, "doc", []byte("v1"), "")
	require.NoError(t, err)

	t.Run("create over existing", func(t *testing.T) {
		_, err := client.Put(ctx, "doc", []byte("v2"), "")
		assert.True(t, IsConflict(err))
	})

	t.Run("stale revision", func(t *testing.T) {
		_, err := client.Put(ctx, "doc", []byte("v2"), "0-stale")
		assert.True(t, IsConflict(err))
	})

	t.Run("update of missing document", func(t *testing.T) {
		_, err := client.Put(ctx, "other", []byte("v1"), rev)
		assert.ErrorIs(t, err, ErrConflict)
	})

	doc, err := client.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(doc.Body))
}

func TestDelete(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	_, err := client.Put(ctx, "doc", []byte("v1"), "")
	require.NoError(t, err)

	require.NoError(t, client.Delete(ctx, "doc"))
	exists, err := client.Exists(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, client.Delete(ctx, "doc"))

	_, err = client.Put(ctx, "doc", []byte("v2"), "")
	assert.NoError(t, err)
}

func TestScanIDs(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"1-100-aaaaaaaaaaaaaaaa", "1-100-abbbbbbbbbbbbbbb", "2-100-aaaaaaaaaaaaaaaa"} {
		_, err := client.Put(ctx, id, []byte("{}"), "")
		require.NoError(t, err)
	}

	other, err := NewClient(&redis.Options{Addr: client.rdb.Options().Addr}, "other")
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Put(ctx, "1-100-cccccccccccccccc", []byte("{}"), "")
	require.NoError(t, err)

	ids, err := client.ScanIDs(ctx, "")
	require.NoError(t, err)
	sort.Strings(ids)
	assert.Equal(t, []string{"1-100-aaaaaaaaaaaaaaaa", "1-100-abbbbbbbbbbbbbbb", "2-100-aaaaaaaaaaaaaaaa"}, ids)

	ids, err = client.ScanIDs(ctx, "1-100-a")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestNextRevision(t *testing.T) {
	assert.Equal(t, 1, RevisionGeneration(nextRevision("")))
	assert.Equal(t, 8, RevisionGeneration(nextRevision("7-abc")))
	assert.Len(t, nextRevision(""), len("1-")+16)
	assert.Equal(t, 0, RevisionGeneration("garbage"))
}

func TestAllocate(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	id := identifier.New(3, 100, identifier.Digest("kevin"))
	require.NoError(t, client.Allocate(ctx, id))

	err := client.Allocate(ctx, identifier.New(9, 100, identifier.Digest("kevin")))
	assert.ErrorIs(t, err, identifier.ErrAlreadyExists)
	assert.ErrorContains(t, err, id.String())

	existing, ok, err := client.Allocated(ctx, identifier.New(9, 100, identifier.Digest("kevin")))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, existing)

	_, ok, err = client.Allocated(ctx, identifier.New(1, 101, identifier.Digest("kevin")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllocate_ThroughAllocator(t *testing.T) {
	client, _ := setupTestClient(t)
	alloc, err := identifier.NewAllocator(identifier.ShardRange{Min: 1, Max: 4}, identifier.TypeRange{Min: 1, Max: 500}, client)
	require.NoError(t, err)

	id, err := alloc.Allocate(context.Background(), "kevin", 100)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, id.Shard, uint32(1))
	assert.LessOrEqual(t, id.Shard, uint32(4))

	_, err = alloc.Allocate(context.Background(), "kevin", 100)
	assert.ErrorIs(t, err, identifier.ErrAlreadyExists)
}

func TestSubscribe(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	rev, err := client.Put(ctx, "doc", []byte("{}"), "")
	require.NoError(t, err)
	require.NoError(t, client.Delete(ctx, "doc"))

	select {
	case event := <-sub.Events():
		assert.Equal(t, "doc", event.ID)
		assert.Equal(t, rev, event.Revision)
		assert.False(t, event.Deleted)
	case <-ctx.Done():
		t.Fatal("timed out waiting for write event")
	}

	select {
	case event := <-sub.Events():
		assert.Equal(t, "doc", event.ID)
		assert.True(t, event.Deleted)
	case <-ctx.Done():
		t.Fatal("timed out waiting for delete event")
	}
}

func TestSubscribe_BadPayload(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(DocumentEventsChannel("test"), "not json")

	select {
	case err := <-sub.Errors():
		assert.ErrorContains(t, err, "failed to unmarshal document event")
	case <-ctx.Done():
		t.Fatal("timed out waiting for error")
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	client, _ := setupTestClient(t)
	sub, err := client.Subscribe(context.Background())
	require.NoError(t, err)

	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	for range sub.Events() {
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	cmd.SetErr(errors.New("pubsub unavailable"))
	return cmd
}

func TestWrites_SurviveFailedPublish(t *testing.T) {
	client, _ := setupTestClient(t)
	client.events = failingPublisher{}
	ctx := context.Background()

	rev, err := client.Put(ctx, "doc", []byte("v1"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, RevisionGeneration(rev))

	doc, err := client.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, rev, doc.Revision)

	next, err := client.Put(ctx, "doc", []byte("v2"), rev)
	require.NoError(t, err, "the revision returned for a committed write must be usable")
	assert.Equal(t, 2, RevisionGeneration(next))

	require.NoError(t, client.Delete(ctx, "doc"))
	exists, err := client.Exists(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, exists)
}
