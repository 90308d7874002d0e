package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soundry/soundry/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the configuration file, database, and local directories.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	for _, dir := range []string{config.Media.Dir, filepath.Dir(config.Cache.Path), filepath.Dir(config.Database.Path)} {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config: %s\n", configPath)
	r.writePlain("Database: %s\n", config.Database.Path)
	r.writePlain("Media dir: %s\n", config.Media.Dir)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add service credentials to %s\n", configPath)
	r.writePlain("2. Run 'soundry titles replenish' to seed the title pool\n")
	r.writePlain("3. Run 'soundry generate --count 4 --style ambient' for a first batch\n")

	return nil
}

// setupCommand handles first-run initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file, database, and local directories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
