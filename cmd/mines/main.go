// mines serves minesweeper game sessions over HTTP and websockets.
//
// Usage:
//
//	mines serve              - Start the game server
//	mines migrate            - Apply (or roll back) postgres migrations
//	mines board              - Generate a board and print it
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper-engine/internal/config"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "mines",
	Short:         "Minesweeper game server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	const (
		defaultConfigPath = "/run/config.json"
		usage             = "config file path (.json, .yaml or .yml)"
	)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, usage)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(boardCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.SetupLogging(); err != nil {
		return nil, err
	}
	logrus.WithFields(cfg.Fields()).Debug("config")
	return cfg, nil
}
