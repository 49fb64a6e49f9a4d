package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/statify/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the backend database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config.Database

	r.logger.Info("initializing database", "path", config.Path)

	db, err := shared.NewDatabase(config.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.MaxOpenConns, config.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back most recent migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back most recent migration on %s\n", config.Path)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Path)
}

// SetupConfig writes the example configuration.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = defaultConfigPath
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Register an app at https://developer.spotify.com/dashboard\n")
	r.writePlain("2. Set client_id, client_secret and redirect_uri (or STATIFY_CLIENT_ID, STATIFY_CLIENT_SECRET)\n")
	r.writePlain("3. Run 'statify serve', then 'statify login'\n")
	return nil
}
