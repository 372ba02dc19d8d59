package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/catalog"
	"github.com/dyluth/quire/internal/filter"
	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/internal/timespec"
	"github.com/dyluth/quire/pkg/datatype"
)

var (
	listOutputFormat string
	listType         int64
	listLang         string
	listAttr         string
	listSince        string
	listUntil        string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored entities with filtering",
	Long: `List the entities stored in the namespace, oldest write first.

Output Formats:
  default - Table with ID, revision, type, languages, age and title
  jsonl   - Line-delimited JSON, one entity document per line

Filters (all must match):
  --type   - Exact entity type
  --lang   - Entity has attributes in this language (also picks the title shown)
  --attr   - Some attribute name matches this glob ("file_*")
  --since  - Last written after this time (duration like 2h, 7d, or RFC3339)
  --until  - Last written before this time

Examples:
  quire list --type 5
  quire list --lang es --since 7d
  quire list -o jsonl | jq .entity_id`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	listCmd.Flags().Int64VarP(&listType, "type", "t", 0, "Filter by entity type")
	listCmd.Flags().StringVarP(&listLang, "lang", "l", "", "Filter by language")
	listCmd.Flags().StringVar(&listAttr, "attr", "", "Filter by attribute name (glob pattern)")
	listCmd.Flags().StringVar(&listSince, "since", "", "Show entities written after time (duration or RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Show entities written before time (duration or RFC3339)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var format catalog.OutputFormat
	switch listOutputFormat {
	case "default":
		format = catalog.OutputFormatDefault
	case "jsonl":
		format = catalog.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	sinceMS, untilMS, err := timespec.ParseRange(listSince, listUntil)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use a duration like '1h30m' or '7d', or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	criteria := &filter.Criteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		EntityType:       listType,
		AttributeGlob:    listAttr,
	}
	if listLang != "" {
		lang, err := datatype.ParseLang(listLang)
		if err != nil {
			return printer.Error("invalid language", err.Error(), nil)
		}
		criteria.Lang = lang
	}

	client, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	c, err := newCodec()
	if err != nil {
		return err
	}

	if err := catalog.List(ctx, client, c, format, criteria, printer.Out); err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}
	return nil
}
