package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextup-app/nextup/internal/config"
	"github.com/nextup-app/nextup/internal/datastore"
)

var version = "dev"

var (
	noColor     bool
	dataDirFlag string
)

var rootCmd = &cobra.Command{
	Use:           "nextup",
	Short:         "Local data store backend for the nextup watchlist app",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (overrides settings and "+datastore.DataDirEnv+")")

	rootCmd.AddCommand(serveCmd, stopCmd, statusCmd)
	rootCmd.AddCommand(configCmd, watchlistCmd, backupCmd, settingsCmd, invokeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// loadConfig loads settings and configures the default logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading settings: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Log))
	return cfg, nil
}

// dirProvider resolves the data directory: --data-dir, then
// NEXTUP_DATA_DIR, then storage.data_dir, then the home default.
func dirProvider(cfg config.Config) datastore.DirProvider {
	if dataDirFlag != "" {
		return datastore.FixedDir(dataDirFlag)
	}
	return cfg.DirProvider()
}

func dataDir(cfg config.Config) string {
	return dirProvider(cfg)()
}

func newGateway(cfg config.Config) *datastore.Gateway {
	return datastore.New(dirProvider(cfg))
}

func newLogger(lc config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
