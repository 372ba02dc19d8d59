package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/quire/internal/store"
	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/identifier"
)

// Get writes the entity stored under id to w as pretty-printed JSON.
// Returns a *NotFoundError when nothing is stored under id.
func Get(ctx context.Context, src Source, c *codec.Codec, id string, w io.Writer) error {
	if _, err := identifier.Parse(id); err != nil {
		return err
	}

	doc, err := src.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return &NotFoundError{EntityID: id}
		}
		return fmt.Errorf("failed to fetch entity: %w", err)
	}
	e, err := c.Unmarshal(doc.Body)
	if err != nil {
		return fmt.Errorf("failed to decode entity %s: %w", id, err)
	}
	e.SetRevision(doc.Revision)

	if err := FormatSingleJSON(w, c, e); err != nil {
		return fmt.Errorf("failed to format entity: %w", err)
	}
	return nil
}

// NotFoundError reports that no entity is stored under an identifier.
type NotFoundError struct {
	EntityID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity with ID '%s' not found", e.EntityID)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
