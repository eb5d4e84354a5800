package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/rbcopy/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template when it is missing and
// initialises the history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config file", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		r.config = config
		r.writePlain("✓ Config written to %s\n", configPath)
	}

	dbPath, err := r.config.Database.ResolvedPath()
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", dbPath)
	db, err := r.openDB(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialise database: %w", err)
	}
	defer db.Close()

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", dbPath)
	r.writePlain("✓ History database ready at %s (schema version %d)\n", dbPath, version)
	return nil
}
