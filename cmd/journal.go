package cmd

import (
	"fmt"
	"log/slog"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

var journalOwner string

// journalCmd groups remote journal commands. These talk straight to
// the shared journal document and work across restarts.
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Browse and manage the reading journal",
}

var journalListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List an owner's journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(slog.LevelWarn)
		if err != nil {
			return err
		}
		if app.journal == nil {
			return fmt.Errorf("no journal_url configured")
		}

		entries, err := app.journal.ForOwner(cmd.Context(), journalOwner)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No journal entries.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s %s\n", colorize.HiWhiteString(e.Name),
				colorize.CyanString("(%s, %s)", e.Kind, e.Timestamp.Format("2006-01-02 15:04")))
			if e.Question != "" {
				fmt.Printf("  Question: %s\n", e.Question)
			}
			for _, c := range e.Cards {
				marker := ""
				if c.Reversed {
					marker = " (reversed)"
				}
				fmt.Printf("  %s: %s%s\n", c.Position, c.Name, marker)
			}
			if e.Notes != "" {
				fmt.Printf("  Notes: %s\n", e.Notes)
			}
			fmt.Println()
		}
		return nil
	},
}

var journalRemoveCmd = &cobra.Command{
	Use:   "rm [name]",
	Short: "Remove one of an owner's journal entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(slog.LevelWarn)
		if err != nil {
			return err
		}
		if app.journal == nil {
			return fmt.Errorf("no journal_url configured")
		}

		if err := app.journal.Remove(cmd.Context(), journalOwner, args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %q.\n", args[0])
		return nil
	},
}

func init() {
	RootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalRemoveCmd)

	journalCmd.PersistentFlags().StringVar(&journalOwner, "owner", "local", "Owner id to operate on")
}
