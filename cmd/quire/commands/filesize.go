package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/pkg/datatype"
)

var filesizeCmd = &cobra.Command{
	Use:   "filesize <value>",
	Short: "Convert a file size between bytes and human units",
	Long: `Parse a file size as stored by quire and show both forms.

Examples:
  quire filesize "1.1 GB"    # 1181116006 bytes, 1.10 GB
  quire filesize 2048        # 2048 bytes, 2.00 KB`,
	Args: cobra.ExactArgs(1),
	// Conversion needs no configuration or store
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		size := datatype.NewFileSize()
		if err := size.Set(args[0], datatype.WriteOptions{}); err != nil {
			return printer.Error("invalid file size", err.Error(),
				[]string{"Use a byte count or a number with a unit: B, KB, MB or GB"})
		}
		bytes, _ := size.Get(datatype.ReadOptions{})
		human, _ := size.Get(datatype.ReadOptions{Formatted: true})
		printer.Printf("%d bytes\n%s\n", bytes, human)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesizeCmd)
}
