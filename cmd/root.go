package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanaland/oraclebot/internal/catalog"
	"github.com/arcanaland/oraclebot/internal/config"
	"github.com/arcanaland/oraclebot/internal/journal"
	"github.com/arcanaland/oraclebot/internal/render"
	"github.com/arcanaland/oraclebot/internal/session"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "oraclebot",
	Short: "Interactive oracle card readings for chat communities",
	Long: `Oraclebot runs interactive card-reading sessions: it keeps a shuffled
deck per community, draws cards with progressive reveal, composes the
hand into a single image, and persists completed readings to a shared
journal. The serve command exposes the engine to the chat adapter; the
other commands drive it locally.`,
}

var configPath string

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (defaults to the XDG location)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// app bundles the wired engine for the local commands.
type app struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	manager  *session.Manager
	renderer *render.Renderer
	journal  *journal.Store
	logger   *slog.Logger
}

// buildApp loads config and wires the engine. The journal store is nil
// when no journal URL is configured.
func buildApp(level slog.Level) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cat, err := catalog.LoadFileOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	cache, err := render.NewImageCache(&render.HTTPSource{BaseURL: cfg.ImageBaseURL}, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("building image cache: %w", err)
	}
	renderer := render.NewRenderer(cache, render.Options{
		MaxBytes:     cfg.AttachmentLimit,
		Gap:          cfg.CardGap,
		MaxWidth:     cfg.MaxCompositeWidth,
		JPEGQuality:  80,
		ShrinkFactor: 0.75,
	}, logger)

	var store *journal.Store
	if cfg.JournalURL != "" {
		store = journal.NewStore(&journal.HTTPRemote{
			URL:        cfg.JournalURL,
			Credential: cfg.JournalToken,
		}, logger)
	}

	return &app{
		cfg:      cfg,
		catalog:  cat,
		manager:  session.NewManager(session.NewStore(), cat, logger),
		renderer: renderer,
		journal:  store,
		logger:   logger,
	}, nil
}
