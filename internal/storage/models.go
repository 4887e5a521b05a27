package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoDatabase is returned by OpenExisting when nextup.db does not exist.
var ErrNoDatabase = errors.New("no snapshot database")

// Snapshot is a point-in-time copy of config.json and watchlist.json.
// Config is nil when no config file existed at capture time.
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Label     string
	Config    *string
	Watchlist string
}
