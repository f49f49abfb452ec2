package main

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/database"
)

var flagDown int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply postgres schema migrations",
	Long: `Apply every pending migration, or roll back the last N with --down.
The sqlite store creates its schema on open and needs no migrations.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&flagDown, "down", 0, "number of migrations to roll back")
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		return errors.New("migrations apply to the postgres driver only")
	}
	dbURL, err := cfg.Storage.PostgresURL()
	if err != nil {
		return err
	}

	var version uint
	if flagDown > 0 {
		version, err = database.Rollback(dbURL, database.Migrations, flagDown)
	} else {
		version, err = database.Migrate(dbURL, database.Migrations)
	}
	if err != nil {
		return err
	}
	logrus.WithField("version", version).Info("database schema is up to date")
	return nil
}
