package cmd

import (
	"fmt"
	"log/slog"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/oraclebot/internal/catalog"
)

// catalogCmd groups card-table commands.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate the card catalog",
}

// catalogListCmd prints every card with its upright meaning.
var catalogListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the cards in the active catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(slog.LevelWarn)
		if err != nil {
			return err
		}

		for _, name := range app.catalog.SortedNames() {
			meaning, err := app.catalog.Meaning(name, false)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n  %s\n  %s\n", colorize.HiWhiteString(name),
				colorize.CyanString("key: %s", catalog.ImageKey(name)), meaning)
		}
		fmt.Printf("\n%d cards\n", app.catalog.Size())
		return nil
	},
}

// catalogValidateCmd checks a catalog override file without loading it
// into the running configuration.
var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a catalog override file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := catalog.LoadFile(path)
		if err != nil {
			fmt.Printf("❌ %s is not a valid catalog:\n   %v\n", path, err)
			return fmt.Errorf("validation failed")
		}
		fmt.Printf("✅ %s is a valid catalog with %d cards.\n", path, c.Size())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}
