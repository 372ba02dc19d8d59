// Package watch follows document changes in a namespace.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/internal/store"
)

// OutputFormat specifies how streamed events are written.
type OutputFormat string

const (
	// OutputFormatDefault writes one human-readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL writes each event as a JSON line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Subscriber opens a document event subscription.
type Subscriber interface {
	Subscribe(ctx context.Context) (*store.Subscription, error)
}

// StreamEvents writes document events whose id starts with prefix to w until
// ctx is cancelled. Undecodable events are logged and skipped.
func StreamEvents(ctx context.Context, sub Subscriber, prefix string, format OutputFormat, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSONL {
		return fmt.Errorf("unknown output format: %s", format)
	}

	subscription, err := sub.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer subscription.Close()

	log := logger.ComponentLogger("watch")
	events, errs := subscription.Events(), subscription.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warnw("skipping document event", logger.FieldError, err)
		case event, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("document event subscription closed")
			}
			if !strings.HasPrefix(event.ID, prefix) {
				continue
			}
			if err := writeEvent(w, event, format); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w io.Writer, event store.DocumentEvent, format OutputFormat) error {
	if format == OutputFormatJSONL {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	_, err := fmt.Fprintln(w, FormatEvent(event))
	return err
}

// FormatEvent renders event as a single line.
func FormatEvent(event store.DocumentEvent) string {
	at := "-"
	if event.AtMs > 0 {
		at = time.UnixMilli(event.AtMs).UTC().Format(time.RFC3339)
	}
	if event.Deleted {
		return fmt.Sprintf("%s 🗑️  Deleted: id=%s", at, event.ID)
	}
	if store.RevisionGeneration(event.Revision) == 1 {
		return fmt.Sprintf("%s ✨ Created: id=%s rev=%s", at, event.ID, event.Revision)
	}
	return fmt.Sprintf("%s ✏️  Updated: id=%s rev=%s", at, event.ID, event.Revision)
}

// DocumentGetter reads single documents.
type DocumentGetter interface {
	Get(ctx context.Context, id string) (*store.Document, error)
}

// PollForRevision polls until the document under id exists at generation
// minGeneration or later, and returns it.
// Polls every 200ms for the specified timeout duration.
func PollForRevision(ctx context.Context, client DocumentGetter, id string, minGeneration int, timeout time.Duration) (*store.Document, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		doc, err := client.Get(ctx, id)
		switch {
		case err == nil && store.RevisionGeneration(doc.Revision) >= minGeneration:
			return doc, nil
		case err != nil && !store.IsNotFound(err):
			return nil, fmt.Errorf("failed to read document: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for %s to reach revision %d after %v", id, minGeneration, timeout)
		case <-ticker.C:
		}
	}
}
