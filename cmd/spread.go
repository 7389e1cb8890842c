package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/oraclebot/internal/session"
	"github.com/arcanaland/oraclebot/internal/spread"
)

var spreadPositions []string

// spreadCmd performs a positioned reading using a built-in or custom
// layout.
var spreadCmd = &cobra.Command{
	Use:   "spread [spread_id]",
	Short: "Perform a spread reading",
	Long: `Spread lays cards out over named positions and reads each one.

Pass a built-in spread id, or --positions for a custom layout of up to
ten positions.

Examples:
  oraclebot spread past_present_future
  oraclebot spread --positions You,Them,"The Bridge"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind string
		var positions []string

		switch {
		case len(args) == 1:
			s, err := spread.Get(args[0])
			if err != nil {
				return fmt.Errorf("%v (available: %s)", err, strings.Join(spread.IDs(), ", "))
			}
			kind = session.SpreadKindPrefix + s.ID
			positions = s.Positions
			fmt.Println(colorize.MagentaString("%s Spread", s.Name))
		case len(spreadPositions) > 0:
			s, err := spread.Custom(spreadPositions)
			if err != nil {
				return err
			}
			kind = session.KindCustom
			positions = s.Positions
		default:
			return fmt.Errorf("pass a spread id or --positions (available: %s)", strings.Join(spread.IDs(), ", "))
		}

		app, err := buildApp(slog.LevelWarn)
		if err != nil {
			return err
		}

		return runReading(cmd, app, session.DrawRequest{
			SessionID:     "local",
			OwnerID:       "local",
			Kind:          kind,
			Positions:     positions,
			Question:      drawQuestion,
			TargetSubject: drawSubject,
		})
	},
}

func init() {
	RootCmd.AddCommand(spreadCmd)

	spreadCmd.Flags().StringSliceVar(&spreadPositions, "positions", nil, "Custom position labels")
	spreadCmd.Flags().StringVarP(&drawQuestion, "question", "q", "", "Question to hold while drawing")
	spreadCmd.Flags().StringVar(&drawSubject, "subject", "", "Who the reading is for")
	spreadCmd.Flags().StringVarP(&drawOut, "out", "o", "", "Write the composite image to this file")
	spreadCmd.Flags().BoolVarP(&drawPreview, "preview", "p", false, "Render the composite as ANSI art")
	spreadCmd.Flags().BoolVar(&drawHidden, "hidden", false, "Keep the cards face down in the composite")
}
