package identifier

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	id, err := Parse("10-100-3858f62230ac3c91")
	require.NoError(t, err)
	assert.Equal(t, uint32(10), id.Shard)
	assert.Equal(t, int64(100), id.EntityType)
	assert.Equal(t, "3858f62230ac3c91", id.DigestHex())
	assert.Equal(t, "10-100-3858f62230ac3c91", id.String())
}

func TestParse_UpperCaseDigest(t *testing.T) {
	id, err := Parse("1-2-3858F62230AC3C91")
	require.NoError(t, err)
	assert.Equal(t, "1-2-3858f62230ac3c91", id.String())
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"word", "kevin"},
		{"empty", ""},
		{"short digest", "10-100-3858f62230ac3c9"},
		{"long digest", "10-100-3858f62230ac3c911"},
		{"non hex digest", "10-100-3858f62230ac3c9z"},
		{"negative type", "10--100-3858f62230ac3c91"},
		{"surrounding space", " 10-100-3858f62230ac3c91"},
		{"shard overflow", "4294967296-100-3858f62230ac3c91"},
		{"type overflow", "1-9223372036854775808-3858f62230ac3c91"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.input)
			assert.ErrorIs(t, err, ErrInvalidIdentifierFormat)
			assert.True(t, id.IsZero())
		})
	}
}

func TestDigest(t *testing.T) {
	assert.Equal(t, Digest("kevin"), Digest("kevin"))
	assert.NotEqual(t, Digest("kevin"), Digest("Kevin"))

	id := New(3, 7, Digest("kevin"))
	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Len(t, id.DigestHex(), 16)
}

func TestIdentifier_TextMarshalling(t *testing.T) {
	type doc struct {
		ID Identifier `json:"id"`
	}
	data, err := json.Marshal(doc{ID: MustParse("10-100-3858f62230ac3c91")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"10-100-3858f62230ac3c91"}`, string(data))

	var out doc
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "10-100-3858f62230ac3c91", out.ID.String())

	err = json.Unmarshal([]byte(`{"id":"kevin"}`), &out)
	assert.ErrorIs(t, err, ErrInvalidIdentifierFormat)
}

type memoryLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (l *memoryLedger) Allocate(_ context.Context, id Identifier) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[id.Key()] {
		return ErrAlreadyExists
	}
	l.seen[id.Key()] = true
	return nil
}

func TestAllocator_Allocate(t *testing.T) {
	ledger := &memoryLedger{}
	shard := uint32(4)
	a, err := NewAllocator(ShardRange{Min: 1, Max: 8}, TypeRange{Min: 1, Max: 1000}, ledger,
		WithShardPicker(func(ShardRange) uint32 { return shard }))
	require.NoError(t, err)

	id, err := a.Allocate(context.Background(), "kevin", 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), id.Shard)
	assert.Equal(t, int64(100), id.EntityType)
	assert.Equal(t, Digest("kevin"), id.Digest)

	shard = 5
	_, err = a.Allocate(context.Background(), "kevin", 100)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = a.Allocate(context.Background(), "kevin", 101)
	assert.NoError(t, err)
}

func TestAllocator_Validation(t *testing.T) {
	a, err := NewAllocator(ShardRange{Min: 1, Max: 8}, TypeRange{Min: 1, Max: 1000}, &memoryLedger{})
	require.NoError(t, err)

	_, err = a.Allocate(context.Background(), "kevin", 0)
	assert.ErrorIs(t, err, ErrInvalidEntityType)
	_, err = a.Allocate(context.Background(), "kevin", 1001)
	assert.ErrorIs(t, err, ErrInvalidEntityType)
	_, err = a.Allocate(context.Background(), "  ", 10)
	assert.ErrorIs(t, err, ErrInvalidSlug)

	_, err = NewAllocator(ShardRange{Min: 9, Max: 8}, TypeRange{Min: 1, Max: 2}, &memoryLedger{})
	assert.Error(t, err)
	_, err = NewAllocator(ShardRange{Min: 1, Max: 8}, TypeRange{Min: 3, Max: 2}, &memoryLedger{})
	assert.Error(t, err)
	_, err = NewAllocator(ShardRange{Min: 1, Max: 8}, TypeRange{Min: 1, Max: 2}, nil)
	assert.Error(t, err)
}

func TestUniformShard_StaysInRange(t *testing.T) {
	r := ShardRange{Min: 10, Max: 12}
	seen := map[uint32]bool{}
	for range 500 {
		s := UniformShard(r)
		require.GreaterOrEqual(t, s, r.Min)
		require.LessOrEqual(t, s, r.Max)
		seen[s] = true
	}
	assert.Len(t, seen, 3)

	assert.Equal(t, uint32(7), UniformShard(ShardRange{Min: 7, Max: 7}))
}
