package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/pkg/identifier"
)

// Allocate records id in the allocation ledger. It fails with
// identifier.ErrAlreadyExists when the slug and entity type were allocated
// before, whatever shard was used then.
func (c *Client) Allocate(ctx context.Context, id identifier.Identifier) error {
	key := AllocationKey(c.namespace, id.Key())
	ok, err := c.rdb.SetNX(ctx, key, id.String(), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}
	if !ok {
		existing, _ := c.rdb.Get(ctx, key).Result()
		return fmt.Errorf("%w: allocated as %s", identifier.ErrAlreadyExists, existing)
	}
	c.log.Infow("identifier allocated", logger.FieldEntityID, id.String())
	return nil
}

// Allocated returns the identifier previously allocated for the slug digest
// and entity type of id.
func (c *Client) Allocated(ctx context.Context, id identifier.Identifier) (identifier.Identifier, bool, error) {
	raw, err := c.rdb.Get(ctx, AllocationKey(c.namespace, id.Key())).Result()
	if errors.Is(err, redis.Nil) {
		return identifier.Identifier{}, false, nil
	}
	if err != nil {
		return identifier.Identifier{}, false, fmt.Errorf("failed to read ledger entry: %w", err)
	}
	existing, err := identifier.Parse(raw)
	if err != nil {
		return identifier.Identifier{}, false, fmt.Errorf("corrupt ledger entry %q: %w", raw, err)
	}
	return existing, true, nil
}

var _ identifier.Ledger = (*Client)(nil)
