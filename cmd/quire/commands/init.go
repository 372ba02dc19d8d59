package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/internal/scaffold"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new quire project",
	Long: `Initialize a new quire project with a default configuration.

Creates:
  • quire.yml - Project configuration file
  • .quire/blobs/ - Local blob store

Use --force to reinitialize an existing project (WARNING: overwrites quire.yml).`,
	Args: cobra.NoArgs,
	// There is no configuration to load yet
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (overwrites quire.yml)")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Project directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	created, err := scaffold.Initialize(fsys, initDir, forceInit)
	if err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}

	printer.Success("Successfully initialized quire project!\n")
	printer.Println("\nCreated:")
	for _, path := range created {
		printer.Printf("  ✓ %s\n", path)
	}
	printer.Println("\nNext steps:")
	printer.Println("  1. Add '.quire/' to your .gitignore file")
	printer.Println("  2. Point redis.url in quire.yml at your Redis server")
	printer.Println("  3. Allocate your first entity: quire allocate my-first-entity --type 1 --save")
	return nil
}
