// Package reconcile merges two copies of the same entity attribute by
// attribute, using each attribute's typed merge.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/entity"
)

// ErrEntityMismatch is returned when the two entities cannot be copies of the
// same document.
var ErrEntityMismatch = errors.New("entities do not match")

// Report summarises a reconciliation.
type Report struct {
	Merged  int // attributes live on both sides and merged
	Adopted int // live values taken from src over an absent or older deleted dst key
	Deleted int // dst keys newly tombstoned by a newer delete in src
}

// Entities folds src into dst. Every language and attribute is resolved with
// the register rule, a tombstone counting as a null at the version it was
// deleted at:
//   - live on both sides: both are decoded and src is merged into dst
//   - a value against a tombstone: the higher version wins, the value on a tie
//   - two tombstones: the higher delete version is kept
//   - only in src: adopted as is
//
// The outcome does not depend on which entity is dst. The identifier is
// adopted when dst has none. Entity types must match.
func Entities(c *codec.Codec, dst, src *entity.Entity) (Report, error) {
	var report Report
	if dst.EntityType() != src.EntityType() {
		return report, fmt.Errorf("%w: entity type %d vs %d", ErrEntityMismatch, dst.EntityType(), src.EntityType())
	}
	srcID, srcHasID := src.Identifier()
	dstID, dstHasID := dst.Identifier()
	switch {
	case srcHasID && dstHasID && srcID != dstID:
		return report, fmt.Errorf("%w: %s vs %s", ErrEntityMismatch, dstID, srcID)
	case srcHasID && !dstHasID:
		if err := dst.SetIdentifier(srcID); err != nil {
			return report, err
		}
	}

	for _, lang := range src.Languages() {
		from, _ := src.Lookup(lang)
		to, err := dst.Snapshot(lang)
		if err != nil {
			return report, err
		}
		for _, key := range from.DeletedKeys() {
			version, _ := from.DeletedVersion(key)
			if err := applyDelete(c, to, key, version, &report); err != nil {
				return report, err
			}
		}
		for _, key := range from.Keys() {
			incoming, _ := from.Get(key)
			if err := applyValue(c, to, key, incoming, &report); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

// applyDelete folds a tombstone deleted at version into to.
func applyDelete(c *codec.Codec, to *entity.Snapshot, key string, version int, report *Report) error {
	if current, ok := to.DeletedVersion(key); ok {
		if version > current {
			to.DelAt(key, version)
		}
		return nil
	}
	if raw, ok := to.Get(key); ok {
		live, err := c.VersionOf(key, raw, to.Lang())
		if err != nil {
			return err
		}
		if live >= version {
			return nil
		}
	}
	to.DelAt(key, version)
	report.Deleted++
	return nil
}

// applyValue folds the live encoded value incoming into to.
func applyValue(c *codec.Codec, to *entity.Snapshot, key, incoming string, report *Report) error {
	if deletedAt, ok := to.DeletedVersion(key); ok {
		version, err := c.VersionOf(key, incoming, to.Lang())
		if err != nil {
			return err
		}
		if version >= deletedAt {
			to.SetRaw(key, incoming)
			report.Adopted++
		}
		return nil
	}
	current, ok := to.Get(key)
	if !ok {
		to.SetRaw(key, incoming)
		report.Adopted++
		return nil
	}
	if current == incoming {
		return nil
	}
	merged, err := mergeRaw(c, key, to.Lang(), current, incoming)
	if err != nil {
		return err
	}
	if merged.null {
		to.DelAt(key, merged.version)
	} else {
		to.SetRaw(key, merged.raw)
	}
	report.Merged++
	return nil
}

type mergeResult struct {
	raw     string
	version int
	null    bool
}

// mergeRaw merges two encoded values of key.
func mergeRaw(c *codec.Codec, key string, lang datatype.Lang, current, incoming string) (mergeResult, error) {
	left, err := c.DecodeRaw(key, current, lang)
	if err != nil {
		return mergeResult{}, err
	}
	right, err := c.DecodeRaw(key, incoming, lang)
	if err != nil {
		return mergeResult{}, err
	}
	if err := left.Merge(right); err != nil {
		return mergeResult{}, fmt.Errorf("attribute %q in %s snapshot: %w", key, lang, err)
	}
	if isNull, _ := left.IsNull(datatype.ReadOptions{}); isNull {
		return mergeResult{version: left.Version(), null: true}, nil
	}
	data, err := c.EncodeValue(left)
	if err != nil {
		return mergeResult{}, err
	}
	return mergeResult{raw: string(data), version: left.Version()}, nil
}
