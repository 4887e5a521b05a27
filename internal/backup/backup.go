// Package backup captures the data files into the snapshot store and writes
// them back on request.
package backup

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nextup-app/nextup/internal/datastore"
	"github.com/nextup-app/nextup/internal/storage"
)

// Files is the subset of *datastore.Gateway used here.
type Files interface {
	ReadConfig() (string, error)
	WriteConfig(content string) (string, error)
	LoadWatchlist() (string, error)
	SaveWatchlist(data string) (string, error)
}

// SnapshotStore is implemented by *storage.Store.
type SnapshotStore interface {
	SaveSnapshot(snap storage.Snapshot) error
	GetSnapshot(id string) (storage.Snapshot, error)
}

// Capture stores the current config and watchlist as a new snapshot. A
// missing config file is recorded as absent, not as an error.
func Capture(files Files, store SnapshotStore, label string) (storage.Snapshot, error) {
	snap := storage.Snapshot{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Label:     label,
	}

	cfg, err := files.ReadConfig()
	switch {
	case err == nil:
		snap.Config = &cfg
	case errors.Is(err, datastore.ErrNotFound):
	default:
		return storage.Snapshot{}, fmt.Errorf("reading config: %w", err)
	}

	wl, err := files.LoadWatchlist()
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("reading watchlist: %w", err)
	}
	snap.Watchlist = wl

	if err := store.SaveSnapshot(snap); err != nil {
		return storage.Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	slog.Info("snapshot captured", "id", snap.ID, "label", label, "has_config", snap.Config != nil)
	return snap, nil
}

// Restore writes a snapshot's files back through the gateway. The config
// file is only written when the snapshot holds one.
func Restore(files Files, store SnapshotStore, id string) (storage.Snapshot, error) {
	snap, err := store.GetSnapshot(id)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("loading snapshot %s: %w", id, err)
	}

	if snap.Config != nil {
		if _, err := files.WriteConfig(*snap.Config); err != nil {
			return storage.Snapshot{}, fmt.Errorf("restoring config: %w", err)
		}
	}
	if _, err := files.SaveWatchlist(snap.Watchlist); err != nil {
		return storage.Snapshot{}, fmt.Errorf("restoring watchlist: %w", err)
	}
	slog.Info("snapshot restored", "id", snap.ID)
	return snap, nil
}
