package datastore

import (
	"os"
	"path/filepath"
)

const (
	// DataDirEnv overrides the data directory, mainly for test isolation.
	DataDirEnv = "NEXTUP_DATA_DIR"

	dataDirName   = ".nextup"
	configFile    = "config.json"
	watchlistFile = "watchlist.json"
)

// DirProvider yields the data directory. It is consulted on every call.
type DirProvider func() string

// EnvDataDir resolves the data directory from NEXTUP_DATA_DIR, falling back
// to ~/.nextup. It never fails and never touches the filesystem.
func EnvDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// FixedDir returns a provider that always yields dir.
func FixedDir(dir string) DirProvider {
	return func() string { return dir }
}
