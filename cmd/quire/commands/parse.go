package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/pkg/identifier"
)

var parseCmd = &cobra.Command{
	Use:   "parse <identifier>",
	Short: "Show the parts of an entity identifier",
	Args:  cobra.ExactArgs(1),
	// Parsing needs no configuration or store
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := identifier.Parse(args[0])
		if err != nil {
			return printer.Error("invalid identifier", err.Error(),
				[]string{"Identifiers look like {shard}-{entity_type}-{16 hex digits}, e.g. 3-5-00000000000000ff"})
		}
		printer.Printf("identifier:  %s\n", id)
		printer.Printf("shard:       %d\n", id.Shard)
		printer.Printf("entity_type: %d\n", id.EntityType)
		printer.Printf("digest:      %s\n", id.DigestHex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
