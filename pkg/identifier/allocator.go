package identifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	// ErrInvalidEntityType is returned when an entity type is outside the
	// allocator's configured range.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidSlug is returned for blank slugs.
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrAlreadyExists is returned by a Ledger that has already recorded an identifier.
	ErrAlreadyExists = errors.New("identifier already exists")
)

// Ledger records allocated identifiers and rejects duplicates with ErrAlreadyExists.
type Ledger interface {
	Allocate(ctx context.Context, id Identifier) error
}

// ShardRange is an inclusive range of shard numbers.
type ShardRange struct {
	Min uint32 `yaml:"min"`
	Max uint32 `yaml:"max"`
}

// TypeRange is an inclusive range of entity types.
type TypeRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// Contains reports whether t is within the range.
func (r TypeRange) Contains(t int64) bool {
	return t >= r.Min && t <= r.Max
}

// ShardPicker returns a shard in [r.Min, r.Max].
type ShardPicker func(r ShardRange) uint32

// UniformShard picks a shard uniformly at random.
func UniformShard(r ShardRange) uint32 {
	span := uint64(r.Max) - uint64(r.Min) + 1
	return r.Min + uint32(rand.Uint64N(span))
}

// Allocator derives identifiers for new entities and records them in a Ledger.
type Allocator struct {
	shards ShardRange
	types  TypeRange
	ledger Ledger
	pick   ShardPicker
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithShardPicker replaces the uniform random shard choice.
func WithShardPicker(pick ShardPicker) Option {
	return func(a *Allocator) {
		a.pick = pick
	}
}

// NewAllocator validates the ranges and returns an allocator writing to ledger.
func NewAllocator(shards ShardRange, types TypeRange, ledger Ledger, opts ...Option) (*Allocator, error) {
	if shards.Min > shards.Max {
		return nil, fmt.Errorf("shard range min %d exceeds max %d", shards.Min, shards.Max)
	}
	if types.Min < 0 || types.Min > types.Max {
		return nil, fmt.Errorf("entity type range [%d, %d] is invalid", types.Min, types.Max)
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	a := &Allocator{shards: shards, types: types, ledger: ledger, pick: UniformShard}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Derive computes the identifier for slug without touching the ledger.
func (a *Allocator) Derive(slug string, entityType int64) (Identifier, error) {
	if strings.TrimSpace(slug) == "" {
		return Identifier{}, fmt.Errorf("%w: slug must not be blank", ErrInvalidSlug)
	}
	if !a.types.Contains(entityType) {
		return Identifier{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidEntityType, entityType, a.types.Min, a.types.Max)
	}
	shard := a.pick(a.shards)
	if shard < a.shards.Min || shard > a.shards.Max {
		return Identifier{}, fmt.Errorf("shard picker returned %d outside [%d, %d]", shard, a.shards.Min, a.shards.Max)
	}
	return New(shard, entityType, Digest(slug)), nil
}

// Allocate derives an identifier for slug and records it in the ledger.
// A ledger rejection is returned wrapped; callers match it with errors.Is.
func (a *Allocator) Allocate(ctx context.Context, slug string, entityType int64) (Identifier, error) {
	id, err := a.Derive(slug, entityType)
	if err != nil {
		return Identifier{}, err
	}
	if err := a.ledger.Allocate(ctx, id); err != nil {
		return Identifier{}, fmt.Errorf("failed to record identifier %s: %w", id, err)
	}
	return id, nil
}
