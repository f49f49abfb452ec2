package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper-engine/internal/app"
	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long: `Start the HTTP server. Sessions are stored in sqlite or postgres
depending on storage.driver; postgres is migrated on startup.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logrus.StandardLogger()
	mines.Log = log.WithField("component", "mines")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting up, mode = ", cfg.Mode)
	if err := app.New(cfg, log).Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
