package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/shared"
)

// SetupConfig writes the example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set auth.session_secret before running 'mibands serve'.\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations. A missing config file is
// created from the template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else if cfg, err := shared.LoadConfig(r.configPath); err == nil {
				r.config = cfg
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	applied, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready: %s (%d migrations applied)\n", r.config.Database.Path, len(applied))
	return nil
}

// SetupRollback rolls back the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(false)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}
	applied, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}
	r.writePlain("✓ Rolled back; %d migrations remain applied\n", len(applied))
	return nil
}

// SetupStatus prints applied migrations.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(false)
	if err != nil {
		return err
	}
	defer closeDB()

	applied, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}
	r.writePlainHeader("Migrations")
	for _, m := range applied {
		r.writePlain("%04d  applied %s\n", m.Version, m.AppliedAt.Local().Format(time.DateTime))
	}
	if len(applied) == 0 {
		r.writePlain("none applied\n")
	}
	return nil
}
