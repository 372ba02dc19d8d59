// Package resolver expands abbreviated entity identifiers.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dyluth/quire/pkg/identifier"
)

// MinShortIDLength is the minimum required length for identifier prefixes.
const MinShortIDLength = 6

// Lookup is the part of the document store the resolver needs.
type Lookup interface {
	Exists(ctx context.Context, id string) (bool, error)
	ScanIDs(ctx context.Context, prefix string) ([]string, error)
}

// ResolveEntityID resolves a prefix of a stored entity's identifier to the
// full identifier.
//
// A complete identifier is checked for existence and returned canonicalised.
// Anything shorter must be at least MinShortIDLength characters and match
// exactly one stored identifier.
func ResolveEntityID(ctx context.Context, lookup Lookup, shortID string) (string, error) {
	if id, err := identifier.Parse(shortID); err == nil {
		full := id.String()
		ok, err := lookup.Exists(ctx, full)
		if err != nil {
			return "", fmt.Errorf("failed to verify entity existence: %w", err)
		}
		if !ok {
			return "", &NotFoundError{ShortID: shortID}
		}
		return full, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	matches, err := lookup.ScanIDs(ctx, strings.ToLower(shortID))
	if err != nil {
		return "", fmt.Errorf("failed to search for entity: %w", err)
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no entities matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no entities found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple entities matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d entities", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous short IDs.
// Lists up to 10 matching identifiers, then "...and N more".
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d entities:\n", err.ShortID, len(err.Matches))

	displayCount := min(len(err.Matches), 10)
	for _, match := range err.Matches[:displayCount] {
		fmt.Fprintf(&b, "  %s\n", match)
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the entity.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
