package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/internal/watch"
)

var (
	watchOutputFormat string
	watchPrefix       string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream document changes in real-time",
	Long: `Stream document writes and deletions in the namespace until interrupted.

Output Formats:
  default - One human-readable line per change
  jsonl   - Line-delimited JSON events

Examples:
  quire watch
  quire watch --prefix 3-5- -o jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	watchCmd.Flags().StringVar(&watchPrefix, "prefix", "", "Only show entities whose identifier starts with this prefix")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var format watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		format = watch.OutputFormatDefault
	case "jsonl":
		format = watch.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if format == watch.OutputFormatDefault {
		printer.Step("watching namespace '%s' (Ctrl+C to stop)\n", settings.Namespace)
	}
	return watch.StreamEvents(ctx, client, watchPrefix, format, printer.Out)
}
