// Package repository loads and saves entities through the document store.
//
// Saves are optimistic. When another writer got there first, the stored copy
// is loaded, folded into the local entity attribute by attribute, and the
// write is retried on top of the stored revision.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/internal/reconcile"
	"github.com/dyluth/quire/internal/store"
	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/entity"
	"github.com/dyluth/quire/pkg/identifier"
)

// ErrNoIdentifier is returned by Save for entities that were never allocated.
var ErrNoIdentifier = errors.New("entity has no identifier")

// Documents is the subset of store.Client the repository needs.
type Documents interface {
	Get(ctx context.Context, id string) (*store.Document, error)
	Put(ctx context.Context, id string, body []byte, revision string) (string, error)
	Delete(ctx context.Context, id string) error
}

// Repository reads and writes entities.
type Repository struct {
	docs       Documents
	codec      *codec.Codec
	allocator  *identifier.Allocator
	maxRetries int
	log        *zap.SugaredLogger
}

// Option configures a Repository.
type Option func(*Repository)

// WithMaxRetries bounds how many times Save merges and retries after a conflict.
func WithMaxRetries(n int) Option {
	return func(r *Repository) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithAllocator enables Create.
func WithAllocator(a *identifier.Allocator) Option {
	return func(r *Repository) {
		r.allocator = a
	}
}

// New creates a repository over docs.
func New(docs Documents, c *codec.Codec, opts ...Option) *Repository {
	r := &Repository{
		docs:       docs,
		codec:      c,
		maxRetries: 3,
		log:        logger.ComponentLogger("repository"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Codec returns the codec entities are encoded with.
func (r *Repository) Codec() *codec.Codec {
	return r.codec
}

// Create allocates an identifier for slug and returns a new, unsaved entity
// carrying it.
func (r *Repository) Create(ctx context.Context, slug string, entityType int64) (*entity.Entity, error) {
	if r.allocator == nil {
		return nil, fmt.Errorf("repository has no identifier allocator")
	}
	id, err := r.allocator.Allocate(ctx, slug, entityType)
	if err != nil {
		return nil, err
	}
	return entity.FromIdentifier(id), nil
}

// Load reads the entity stored under id. The returned entity carries the
// stored revision.
func (r *Repository) Load(ctx context.Context, id identifier.Identifier) (*entity.Entity, error) {
	doc, err := r.docs.Get(ctx, id.String())
	if err != nil {
		return nil, err
	}
	e, err := r.codec.Unmarshal(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", id, err)
	}
	stored, ok := e.Identifier()
	if !ok {
		if err := e.SetIdentifier(id); err != nil {
			return nil, err
		}
	} else if stored != id {
		return nil, fmt.Errorf("document %s holds entity %s", id, stored)
	}
	e.SetRevision(doc.Revision)
	return e, nil
}

// Save writes e. On a revision conflict the stored copy is merged into e and
// the write retried, at most maxRetries times. On success e carries the new
// revision.
func (r *Repository) Save(ctx context.Context, e *entity.Entity) error {
	id, ok := e.Identifier()
	if !ok {
		return ErrNoIdentifier
	}
	log := r.log.With(logger.FieldEntityID, id.String())

	for attempt := 0; ; attempt++ {
		body, err := r.codec.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", id, err)
		}
		rev, err := r.docs.Put(ctx, id.String(), body, e.Revision())
		if err == nil {
			e.SetRevision(rev)
			log.Debugw("entity saved", logger.FieldRevision, rev, logger.FieldAttempt, attempt)
			return nil
		}
		if !store.IsConflict(err) {
			return err
		}
		if attempt >= r.maxRetries {
			return fmt.Errorf("giving up on %s after %d attempts: %w", id, attempt+1, err)
		}
		log.Warnw("revision conflict, merging stored copy", logger.FieldRevision, e.Revision(), logger.FieldAttempt, attempt)
		if err := r.mergeStored(ctx, id, e); err != nil {
			return err
		}
	}
}

// mergeStored folds the stored copy of id into e and moves e onto the stored
// revision. A copy deleted in the meantime leaves e to be written as new.
func (r *Repository) mergeStored(ctx context.Context, id identifier.Identifier, e *entity.Entity) error {
	remote, err := r.Load(ctx, id)
	if store.IsNotFound(err) {
		e.SetRevision("")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load stored copy of %s: %w", id, err)
	}
	report, err := reconcile.Entities(r.codec, e, remote)
	if err != nil {
		return fmt.Errorf("failed to merge stored copy of %s: %w", id, err)
	}
	r.log.Debugw("merged stored copy",
		logger.FieldEntityID, id.String(),
		"merged", report.Merged,
		"adopted", report.Adopted,
		"deleted", report.Deleted)
	e.SetRevision(remote.Revision())
	return nil
}

// Delete removes the entity stored under id.
func (r *Repository) Delete(ctx context.Context, id identifier.Identifier) error {
	if err := r.docs.Delete(ctx, id.String()); err != nil {
		return err
	}
	r.log.Infow("entity deleted", logger.FieldEntityID, id.String())
	return nil
}
