// Package datastore reads and writes the application's config.json and
// watchlist.json. File contents are opaque text: nothing is parsed or
// validated, and every call resolves the data directory afresh.
package datastore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"
)

const (
	// ConfigSaved is returned by a successful WriteConfig.
	ConfigSaved = "Config saved successfully"
	// WatchlistSaved is returned by a successful SaveWatchlist.
	WatchlistSaved = "Saved successfully"
	// EmptyWatchlist is returned by LoadWatchlist when no file exists.
	EmptyWatchlist = "[]"
)

// Gateway exposes the file-backed operations. It holds no mutable state and
// may be shared between goroutines; concurrent writers race and the last
// one wins.
type Gateway struct {
	dirs DirProvider
}

// New returns a Gateway. A nil provider selects EnvDataDir.
func New(dirs DirProvider) *Gateway {
	if dirs == nil {
		dirs = EnvDataDir
	}
	return &Gateway{dirs: dirs}
}

// DataDir returns the currently resolved data directory.
func (g *Gateway) DataDir() string {
	return g.dirs()
}

// ConfigPath returns the path of config.json under the data directory.
func (g *Gateway) ConfigPath() (string, error) {
	p := filepath.Join(g.dirs(), configFile)
	if !utf8.ValidString(p) {
		return "", ioFailure("get_config_path", p, fmt.Errorf("config path is not valid UTF-8: %q", p))
	}
	return p, nil
}

// ReadConfig returns config.json verbatim. A missing file yields an error
// of KindNotFound.
func (g *Gateway) ReadConfig() (string, error) {
	p := filepath.Join(g.dirs(), configFile)
	slog.Debug("reading config", "path", p)

	content, found, err := readFile("read_config", p)
	if err != nil {
		return "", err
	}
	if !found {
		return "", notFound("read_config", p)
	}
	return content, nil
}

// WriteConfig overwrites config.json, creating the data directory first.
func (g *Gateway) WriteConfig(content string) (string, error) {
	if err := g.write("write_config", configFile, content); err != nil {
		return "", err
	}
	return ConfigSaved, nil
}

// LoadWatchlist returns watchlist.json verbatim, or "[]" when it does not
// exist.
func (g *Gateway) LoadWatchlist() (string, error) {
	p := filepath.Join(g.dirs(), watchlistFile)
	slog.Debug("loading watchlist", "path", p)

	content, found, err := readFile("load_watchlist", p)
	if err != nil {
		return "", err
	}
	if !found {
		return EmptyWatchlist, nil
	}
	return content, nil
}

// SaveWatchlist overwrites watchlist.json, creating the data directory first.
func (g *Gateway) SaveWatchlist(data string) (string, error) {
	if err := g.write("save_watchlist", watchlistFile, data); err != nil {
		return "", err
	}
	return WatchlistSaved, nil
}

func (g *Gateway) write(op, name, content string) error {
	dir := g.dirs()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("creating data directory failed", "op", op, "dir", dir, "error", err)
		return ioFailure(op, dir, err)
	}

	p := filepath.Join(dir, name)
	slog.Debug("writing file", "op", op, "path", p, "bytes", len(content))
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		slog.Warn("writing file failed", "op", op, "path", p, "error", err)
		return ioFailure(op, p, err)
	}
	return nil
}

// readFile reports found=false only when the file is absent. A file removed
// between the stat and the read is an I/O failure.
func readFile(op, p string) (string, bool, error) {
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, ioFailure(op, p, err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		slog.Warn("reading file failed", "op", op, "path", p, "error", err)
		return "", true, ioFailure(op, p, err)
	}
	return string(data), true, nil
}
