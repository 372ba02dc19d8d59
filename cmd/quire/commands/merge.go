package commands

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/catalog"
	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/internal/reconcile"
	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/entity"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <a.json> <b.json>",
	Short: "Merge two copies of an entity document",
	Long: `Merge two copies of the same entity document and print the result.

Attributes are merged one by one: the higher version wins, equal versions
are settled by comparing values, and deletions are kept. The result does not
depend on argument order. Nothing is written to the store.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	c, err := newCodec()
	if err != nil {
		return err
	}

	left, err := readEntityFile(c, args[0])
	if err != nil {
		return err
	}
	right, err := readEntityFile(c, args[1])
	if err != nil {
		return err
	}

	report, err := reconcile.Entities(c, left, right)
	if err != nil {
		return printer.Error("cannot merge documents", err.Error(), nil)
	}
	// the merged revision is neither input's
	left.SetRevision("")

	if err := catalog.FormatSingleJSON(printer.Out, c, left); err != nil {
		return err
	}
	printer.Warning("merged %d, adopted %d, deleted %d attributes\n", report.Merged, report.Adopted, report.Deleted)
	return nil
}

func readEntityFile(c *codec.Codec, path string) (*entity.Entity, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, printer.Error("cannot read document", err.Error(), nil)
	}
	e, err := c.Unmarshal(data)
	if err != nil {
		return nil, printer.Error(fmt.Sprintf("invalid document %s", path), err.Error(), nil)
	}
	return e, nil
}
