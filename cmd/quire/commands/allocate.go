package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/pkg/identifier"
)

var (
	allocateType int64
	allocateSave bool
)

var allocateCmd = &cobra.Command{
	Use:   "allocate <slug>",
	Short: "Allocate an entity identifier for a slug",
	Long: `Allocate an identifier of the form {shard}-{entity_type}-{digest}.

The digest is derived from the slug, and the shard is picked at random within
the configured range. A slug can be allocated once per entity type; the
ledger in Redis rejects repeats.

Examples:
  quire allocate red-dog --type 5
  quire allocate red-dog --type 5 --save`,
	Args: cobra.ExactArgs(1),
	RunE: runAllocate,
}

func init() {
	allocateCmd.Flags().Int64VarP(&allocateType, "type", "t", 0, "Entity type (required)")
	allocateCmd.Flags().BoolVar(&allocateSave, "save", false, "Also store an empty document for the new entity")
	_ = allocateCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(allocateCmd)
}

func runAllocate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, client, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	e, err := repo.Create(ctx, args[0], allocateType)
	if err != nil {
		switch {
		case errors.Is(err, identifier.ErrAlreadyExists):
			return printer.Error("identifier already allocated", err.Error(),
				[]string{"Each slug can be allocated once per entity type. Pick another slug."})
		case errors.Is(err, identifier.ErrInvalidEntityType), errors.Is(err, identifier.ErrInvalidSlug):
			return printer.Error("cannot allocate identifier", err.Error(), nil)
		}
		return err
	}
	id, _ := e.Identifier()

	if allocateSave {
		if err := repo.Save(ctx, e); err != nil {
			return fmt.Errorf("failed to store new entity: %w", err)
		}
	}

	printer.Println(id.String())
	return nil
}
