// Package store keeps entity documents, the identifier allocation ledger and
// document change events in Redis.
//
// Documents are hashes {body, revision, updated_at_ms}. Writes are optimistic:
// Put succeeds only when the caller presents the revision currently stored, and
// every successful write issues a fresh revision.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dyluth/quire/internal/logger"
)

var (
	// ErrNotFound is returned by Get for documents that do not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned by Put when the stored revision differs from the
	// one presented.
	ErrConflict = errors.New("document revision conflict")
)

// Document is a stored entity body with its revision.
type Document struct {
	ID          string
	Revision    string
	Body        []byte
	UpdatedAtMs int64
}

// Client provides namespaced document operations. It is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	events    publisher
	namespace string
	log       *zap.SugaredLogger
}

// publisher sends document events. *redis.Client satisfies it.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NewClient creates a client for namespace.
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	rdb := redis.NewClient(redisOpts)
	return &Client{
		rdb:       rdb,
		events:    rdb,
		namespace: namespace,
		log:       logger.ComponentLogger("store").With(logger.FieldNamespace, namespace),
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client for namespace.
func NewClientFromURL(redisURL, namespace string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewClient(opts, namespace)
}

// Namespace returns the key namespace.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the document stored under id, or ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*Document, error) {
	hash, err := c.rdb.HGetAll(ctx, EntityKey(c.namespace, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read document from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	updatedAt, _ := strconv.ParseInt(hash["updated_at_ms"], 10, 64)
	return &Document{
		ID:          id,
		Revision:    hash["revision"],
		Body:        []byte(hash["body"]),
		UpdatedAtMs: updatedAt,
	}, nil
}

// Exists reports whether a document is stored under id.
func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	n, err := c.rdb.Exists(ctx, EntityKey(c.namespace, id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}
	return n > 0, nil
}

// Put stores body under id if the stored revision equals revision ("" for a
// document that must not exist yet). It returns the new revision and
// publishes a DocumentEvent. Once the write has committed a failed publish is
// logged, not returned.
func (c *Client) Put(ctx context.Context, id string, body []byte, revision string) (string, error) {
	key := EntityKey(c.namespace, id)
	var next string

	txf := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "revision").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read revision: %w", err)
		}
		if current != revision {
			return fmt.Errorf("%w: %s is at %q, write based on %q", ErrConflict, id, current, revision)
		}
		next = nextRevision(current)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"body", string(body),
				"revision", next,
				"updated_at_ms", time.Now().UnixMilli(),
			)
			return nil
		})
		return err
	}

	if err := c.rdb.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return "", fmt.Errorf("%w: %s changed during write", ErrConflict, id)
		}
		return "", err
	}

	c.log.Debugw("document written", logger.FieldEntityID, id, logger.FieldRevision, next, logger.FieldSize, len(body))
	c.publish(ctx, DocumentEvent{ID: id, Revision: next, AtMs: time.Now().UnixMilli()})
	return next, nil
}

// Delete removes the document under id. Deleting a missing document is not an
// error, and neither is a failed event publish after the delete.
func (c *Client) Delete(ctx context.Context, id string) error {
	n, err := c.rdb.Del(ctx, EntityKey(c.namespace, id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n == 0 {
		return nil
	}
	c.log.Debugw("document deleted", logger.FieldEntityID, id)
	c.publish(ctx, DocumentEvent{ID: id, Deleted: true, AtMs: time.Now().UnixMilli()})
	return nil
}

// ScanIDs returns the ids of stored documents starting with prefix, in no
// particular order.
func (c *Client) ScanIDs(ctx context.Context, prefix string) ([]string, error) {
	pattern := EntityKeyPattern(c.namespace, prefix)
	var ids []string
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan documents: %w", err)
		}
		for _, key := range keys {
			if id, ok := EntityIDFromKey(c.namespace, key); ok {
				ids = append(ids, id)
			}
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}

// nextRevision returns "{n+1}-{random}" where n is the generation of current.
func nextRevision(current string) string {
	generation := 0
	if head, _, ok := strings.Cut(current, "-"); ok {
		generation, _ = strconv.Atoi(head)
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s", generation+1, token[:16])
}

// RevisionGeneration returns the numeric generation of a revision, 0 for "".
func RevisionGeneration(rev string) int {
	head, _, _ := strings.Cut(rev, "-")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
