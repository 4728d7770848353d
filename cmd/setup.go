package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/playlistd/internal/shared"
	"github.com/desertthunder/playlistd/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the SQLite session database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("%s rolled back latest migration on %s\n", ui.Styles.OK("✓"), config.Database.Path)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	if config.Session.Store != shared.StoreSQLite {
		r.writePlain("%s set session.store = \"sqlite\" (or SESSION_STORE=sqlite) to use it\n", ui.Styles.Warn("note:"))
	}
	return nil
}

// ConfigInit writes the example configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("%s wrote %s; set spotify.client_id and spotify.client_secret (or CLIENT_ID/CLIENT_SECRET)\n",
		ui.Styles.OK("✓"), path)
}

// ConfigShow prints the effective configuration after file and environment layering, with secrets masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	masked := *config
	masked.Spotify.ClientSecret = shared.Mask(config.Spotify.ClientSecret)
	masked.Session.Secret = shared.Mask(config.Session.Secret)
	masked.Redis.Password = shared.Mask(config.Redis.Password)

	if cmd.Bool("json") {
		return r.writeJSON(masked, true)
	}

	if err := toml.NewEncoder(r.output).Encode(masked); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
