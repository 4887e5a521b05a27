package backup

import (
	"errors"
	"testing"

	"github.com/nextup-app/nextup/internal/datastore"
	"github.com/nextup-app/nextup/internal/storage"
)

func setup(t *testing.T) (*datastore.Gateway, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return datastore.New(datastore.FixedDir(t.TempDir())), store
}

func TestCaptureAndRestore(t *testing.T) {
	gw, store := setup(t)
	gw.WriteConfig(`{"tmdbApiKey":"k1"}`)
	gw.SaveWatchlist(`[{"id":"movie-1"}]`)

	snap, err := Capture(gw, store, "first")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("snapshot has no id")
	}

	gw.WriteConfig(`{"tmdbApiKey":"k2"}`)
	gw.SaveWatchlist(`[]`)

	if _, err := Restore(gw, store, snap.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	cfg, err := gw.ReadConfig()
	if err != nil || cfg != `{"tmdbApiKey":"k1"}` {
		t.Errorf("config after restore = %q, %v", cfg, err)
	}
	wl, err := gw.LoadWatchlist()
	if err != nil || wl != `[{"id":"movie-1"}]` {
		t.Errorf("watchlist after restore = %q, %v", wl, err)
	}
}

func TestCapture_NoConfig(t *testing.T) {
	gw, store := setup(t)

	snap, err := Capture(gw, store, "")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if snap.Config != nil {
		t.Errorf("Config = %q, want nil", *snap.Config)
	}
	if snap.Watchlist != "[]" {
		t.Errorf("Watchlist = %q, want []", snap.Watchlist)
	}

	// Restoring must not invent a config file.
	if _, err := Restore(gw, store, snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.ReadConfig(); !errors.Is(err, datastore.ErrNotFound) {
		t.Errorf("ReadConfig after restore = %v, want ErrNotFound", err)
	}
}

func TestRestore_UnknownSnapshot(t *testing.T) {
	gw, store := setup(t)

	if _, err := Restore(gw, store, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want storage.ErrNotFound", err)
	}
}
