package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcanaland/oraclebot/internal/gateway"
)

// serveCmd runs the HTTP gateway the chat adapter talks to.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reading gateway",
	Long: `Serve exposes the reading engine over HTTP: draws, reveal clicks,
composite images, and journal persistence. The chat platform adapter is
expected to sit in front of this gateway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(slog.LevelInfo)
		if err != nil {
			return err
		}
		slog.SetDefault(app.logger)

		router := gateway.New(app.manager, app.renderer, app.journal, app.logger).Router()
		srv := &http.Server{
			Addr:              app.cfg.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			app.logger.Info("gateway listening", "addr", app.cfg.ListenAddr, "journal", app.journal != nil)
			errCh <- srv.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case sig := <-stop:
			app.logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
