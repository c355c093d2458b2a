package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rpggio/photobook/internal/config"
	"github.com/rpggio/photobook/internal/sqlite"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "photobook",
	Short:         "photobook - a photobook editor backend",
	Long:          "photobook stores photobook projects, versions and page layouts and serves them to editors over MCP.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $PHOTOBOOK_CONFIG_PATH)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newSpineCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newAPIKeyCmd())
	rootCmd.AddCommand(newEventsCmd())
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// openDB opens the configured database and brings its schema up to date.
func openDB(cfg config.Config) (*sqlite.DB, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
