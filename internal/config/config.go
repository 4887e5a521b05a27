// Package config loads the runtime settings of the nextup backend: bridge
// port, MCP transport, data directory override and logging. These settings
// are separate from the front-end's config.json, which the datastore treats
// as opaque text.
package config

import (
	"os"

	"github.com/nextup-app/nextup/internal/datastore"
)

type Config struct {
	Server  ServerConfig
	MCP     MCPConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port     int
	MaxConns int
}

type MCPConfig struct {
	Enabled bool
}

// StorageConfig.DataDir replaces the home-directory default. A non-empty
// NEXTUP_DATA_DIR still takes precedence over it.
type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level  string
	Format string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     4310,
			MaxConns: 16,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DirProvider returns the data directory provider for the gateway. The
// NEXTUP_DATA_DIR override is checked on every call and wins over
// storage.data_dir.
func (c Config) DirProvider() datastore.DirProvider {
	pinned := c.Storage.DataDir
	if pinned == "" {
		return datastore.EnvDataDir
	}
	return func() string {
		if os.Getenv(datastore.DataDirEnv) != "" {
			return datastore.EnvDataDir()
		}
		return pinned
	}
}

// DataDir returns the data directory as currently resolved.
func (c Config) DataDir() string {
	return c.DirProvider()()
}

// Load reads settings from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: app.nextup).
// Elsewhere it is a JSON file at $XDG_CONFIG_HOME/nextup/settings.json.
//
// Environment variables (NEXTUP_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
