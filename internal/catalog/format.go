package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/entity"
	"github.com/dyluth/quire/pkg/schema"
)

const defaultTitleLang datatype.Lang = "en"

// FormatTable writes entries as a table: ID, REV, TYPE, LANGS, AGE and TITLE.
// The title is shown in lang, or in the first language that has one.
// Returns the number of entries formatted.
func FormatTable(w io.Writer, c *codec.Codec, entries []Entry, namespace string, lang datatype.Lang) int {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No entities found in namespace '%s'\n", namespace)
		return 0
	}

	fmt.Fprintf(w, "Entities in namespace '%s':\n\n", namespace)

	fmt.Fprintf(w, "%-28s %-5s %-6s %-12s %-8s %s\n",
		"ID", "REV", "TYPE", "LANGS", "AGE", "TITLE")
	fmt.Fprintf(w, "%-28s %-5s %-6s %-12s %-8s %s\n",
		"----------------------------", "-----", "------", "------------", "--------", "----------------------------------------")

	for _, entry := range entries {
		fmt.Fprintf(w, "%-28s %-5s %-6d %-12s %-8s %s\n",
			entry.ID,
			formatRevision(entry.Entity.Revision()),
			entry.Entity.EntityType(),
			formatLanguages(entry.Entity.Languages()),
			formatTimestamp(entry.UpdatedAtMs),
			formatTitle(titleOf(c, entry.Entity, lang)),
		)
	}

	countMsg := "entity"
	if len(entries) != 1 {
		countMsg = "entities"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(entries), countMsg)

	return len(entries)
}

// FormatJSONL writes each entry's document as a single line of JSON.
func FormatJSONL(w io.Writer, c *codec.Codec, entries []Entry) error {
	for _, entry := range entries {
		data, err := c.Marshal(entry.Entity)
		if err != nil {
			return fmt.Errorf("failed to encode entity %s: %w", entry.ID, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes e's document as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, c *codec.Codec, e *entity.Entity) error {
	data, err := c.Marshal(e)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return err
	}
	pretty.WriteByte('\n')
	_, err = w.Write(pretty.Bytes())
	return err
}

// titleOf returns e's title in lang, falling back to the first language
// that has one. Empty when there is no readable title.
func titleOf(c *codec.Codec, e *entity.Entity, lang datatype.Lang) string {
	localized, err := c.Localized(e, schema.Title)
	if err != nil {
		return ""
	}
	if t, ok := localized.Translation(lang); ok {
		if text, ok := t.Text(); ok {
			return text
		}
	}
	for _, t := range localized.Translations() {
		if text, ok := t.Text(); ok {
			return text
		}
	}
	return ""
}

// formatTitle truncates a title to its first line, at most 40 characters.
// Empty titles return "-".
func formatTitle(title string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(title), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "-"
	}
	runes := []rune(first)
	if len(runes) > 40 {
		return string(runes[:37]) + "..."
	}
	return first
}

// formatRevision shows the generation of a revision ("r3"), or "-" for none.
func formatRevision(rev string) string {
	head, _, _ := strings.Cut(rev, "-")
	if head == "" {
		return "-"
	}
	return "r" + head
}

// formatLanguages lists concrete languages, "*" when only neutral attributes exist.
func formatLanguages(langs []datatype.Lang) string {
	var names []string
	for _, l := range langs {
		if !l.IsWildcard() {
			names = append(names, string(l))
		}
	}
	if len(names) == 0 {
		return "*"
	}
	joined := strings.Join(names, ",")
	if len(joined) > 12 {
		return joined[:9] + "..."
	}
	return joined
}

// formatTimestamp formats Unix milliseconds as relative time like "2m ago".
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := time.Since(time.UnixMilli(timestampMs))

	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
