// Package catalog lists and shows stored entities for the CLI.
package catalog

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/dyluth/quire/internal/filter"
	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/internal/store"
	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/entity"
)

// OutputFormat specifies how to format the entity list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with one line per entity
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete entity documents as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Source is the read side of the document store.
type Source interface {
	Namespace() string
	ScanIDs(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, id string) (*store.Document, error)
}

// Entry is a decoded stored entity.
type Entry struct {
	ID          string
	UpdatedAtMs int64
	Entity      *entity.Entity
}

// Collect loads every stored entity matching filters, oldest write first.
// Documents that fail to decode are skipped with a warning.
func Collect(ctx context.Context, src Source, c *codec.Codec, filters *filter.Criteria) ([]Entry, error) {
	ids, err := src.ScanIDs(ctx, "")
	if err != nil {
		return nil, err
	}

	log := logger.ComponentLogger("catalog")
	var entries []Entry
	for _, id := range ids {
		doc, err := src.Get(ctx, id)
		if store.IsNotFound(err) {
			// deleted since the scan
			continue
		}
		if err != nil {
			return nil, err
		}
		e, err := c.Unmarshal(doc.Body)
		if err != nil {
			log.Warnw("skipping malformed document", logger.FieldEntityID, id, logger.FieldError, err)
			continue
		}
		e.SetRevision(doc.Revision)

		if filters != nil && !filters.Matches(e, doc.UpdatedAtMs) {
			continue
		}
		entries = append(entries, Entry{ID: id, UpdatedAtMs: doc.UpdatedAtMs, Entity: e})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UpdatedAtMs != entries[j].UpdatedAtMs {
			return entries[i].UpdatedAtMs < entries[j].UpdatedAtMs
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// List writes every stored entity matching filters to w in format.
func List(ctx context.Context, src Source, c *codec.Codec, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	entries, err := Collect(ctx, src, c, filters)
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatDefault, "":
		lang := defaultTitleLang
		if filters != nil && filters.Lang != "" {
			lang = filters.Lang
		}
		FormatTable(w, c, entries, src.Namespace(), lang)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, c, entries); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}
