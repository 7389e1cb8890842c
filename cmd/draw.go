package cmd

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/oraclebot/internal/ansi"
	"github.com/arcanaland/oraclebot/internal/catalog"
	"github.com/arcanaland/oraclebot/internal/render"
	"github.com/arcanaland/oraclebot/internal/session"
	"github.com/arcanaland/oraclebot/internal/spread"
)

var (
	drawQuestion string
	drawSubject  string
	drawOut      string
	drawPreview  bool
	drawHidden   bool
)

// drawCmd performs an ad-hoc reading in one shot: draw, reveal, print.
var drawCmd = &cobra.Command{
	Use:   "draw [count]",
	Short: "Draw cards and read them",
	Long: `Draw performs a one-shot reading: it draws between 1 and 5 cards from
a freshly shuffled deck, reveals them, and prints each card's meaning.

Use --out to write the composite image, and --preview to render it as
ANSI art in the terminal.

Examples:
  oraclebot draw
  oraclebot draw 3 --question "What should I focus on?"
  oraclebot draw 5 --out hand.png --preview`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count := 1
		if len(args) == 1 {
			if _, err := fmt.Sscanf(args[0], "%d", &count); err != nil {
				return fmt.Errorf("invalid count: %s", args[0])
			}
		}

		app, err := buildApp(slog.LevelWarn)
		if err != nil {
			return err
		}

		return runReading(cmd, app, session.DrawRequest{
			SessionID:     "local",
			OwnerID:       "local",
			Kind:          session.KindAdHoc,
			Positions:     spread.DefaultPositions(count),
			Question:      drawQuestion,
			TargetSubject: drawSubject,
		})
	},
}

func init() {
	RootCmd.AddCommand(drawCmd)

	drawCmd.Flags().StringVarP(&drawQuestion, "question", "q", "", "Question to hold while drawing")
	drawCmd.Flags().StringVar(&drawSubject, "subject", "", "Who the reading is for")
	drawCmd.Flags().StringVarP(&drawOut, "out", "o", "", "Write the composite image to this file")
	drawCmd.Flags().BoolVarP(&drawPreview, "preview", "p", false, "Render the composite as ANSI art")
	drawCmd.Flags().BoolVar(&drawHidden, "hidden", false, "Keep the cards face down in the composite")
}

// runReading draws, reveals every card, and prints the hand.
func runReading(cmd *cobra.Command, app *app, req session.DrawRequest) error {
	res, err := app.manager.Draw(req)
	if err != nil {
		return err
	}
	r := res.Reading

	if res.Reshuffled {
		fmt.Println(colorize.YellowString("The deck has been reshuffled."))
	}
	if req.Question != "" {
		fmt.Printf("%s %s\n", colorize.CyanString("Question:"), req.Question)
	}
	fmt.Println()

	for i := range r.Cards {
		if _, err := app.manager.Reveal(r.ID, i); err != nil {
			return err
		}
		meaning, err := app.catalog.Meaning(r.Cards[i], r.Reversed[i])
		if err != nil {
			return err
		}

		name := r.Cards[i]
		if r.Reversed[i] {
			name += " (reversed)"
		}
		fmt.Printf("%s %s\n", colorize.CyanString("%s:", r.Positions[i]), colorize.HiWhiteString(name))
		fmt.Printf("  %s\n\n", meaning)
	}

	if drawOut == "" && !drawPreview {
		return nil
	}

	slots := make([]render.Slot, len(r.Cards))
	for i := range r.Cards {
		slots[i] = render.Slot{
			Key:      catalog.ImageKey(r.Cards[i]),
			FaceUp:   !drawHidden,
			Reversed: r.Reversed[i],
		}
	}
	composite, err := app.renderer.Compose(cmd.Context(), slots)
	if err != nil {
		return err
	}

	if drawOut != "" {
		if err := os.WriteFile(drawOut, composite.Data, 0644); err != nil {
			return fmt.Errorf("writing composite: %w", err)
		}
		fmt.Printf("Composite written to %s (%s, %d bytes)\n", drawOut, composite.Format, len(composite.Data))
	}

	if drawPreview {
		img, _, err := image.Decode(bytes.NewReader(composite.Data))
		if err != nil {
			return fmt.Errorf("decoding composite for preview: %w", err)
		}
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 4 {
			width = w - 4
		}
		fmt.Println(ansi.Render(img, width))
	}

	return nil
}
