package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// MediaType is the kind of title being tracked.
type MediaType string

const (
	Movie MediaType = "movie"
	TV    MediaType = "tv"
	Anime MediaType = "anime"
)

// Valid reports whether m is a known media type.
func (m MediaType) Valid() bool {
	switch m {
	case Movie, TV, Anime:
		return true
	}
	return false
}

// Status is where the user is with a title.
type Status string

const (
	PlanToWatch      Status = "plan-to-watch"
	Watching         Status = "watching"
	WaitingForNextEp Status = "waiting-for-next-ep"
	OnHold           Status = "on-hold"
	Dropped          Status = "dropped"
	Completed        Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{PlanToWatch, Watching, WaitingForNextEp, OnHold, Dropped, Completed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Season holds the episode count of one season.
type Season struct {
	Season   int `json:"season"`
	Episodes int `json:"episodes"`
}

// Item is one watchlist entry, using the front-end's JSON field names.
type Item struct {
	ID             string    `json:"id"`
	TMDBID         int       `json:"tmdbId"`
	MediaType      MediaType `json:"mediaType"`
	Title          string    `json:"title"`
	PosterPath     *string   `json:"posterPath"`
	Overview       string    `json:"overview"`
	ReleaseDate    string    `json:"releaseDate"`
	Rating         float64   `json:"rating"`
	Status         Status    `json:"status"`
	AddedDate      int64     `json:"addedDate"`
	Notes          string    `json:"notes,omitempty"`
	Seasons        []Season  `json:"seasons,omitempty"`
	CurrentSeason  int       `json:"currentSeason,omitempty"`
	CurrentEpisode int       `json:"currentEpisode,omitempty"`

	// extra holds fields this package does not model so rewrites keep them.
	extra map[string]json.RawMessage
}

var itemKeys = []string{
	"id", "tmdbId", "mediaType", "title", "posterPath", "overview", "releaseDate",
	"rating", "status", "addedDate", "notes", "seasons", "currentSeason", "currentEpisode",
}

// itemFields has Item's layout without its JSON methods.
type itemFields Item

func (it *Item) UnmarshalJSON(data []byte) error {
	var f itemFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range itemKeys {
		delete(raw, k)
	}
	*it = Item(f)
	it.extra = nil
	if len(raw) > 0 {
		it.extra = raw
	}
	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(itemFields(it))
	if err != nil || len(it.extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range it.extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Stats summarises a watchlist for the dashboard.
type Stats struct {
	TotalItems    int     `json:"totalItems"`
	Unwatched     int     `json:"unwatched"`
	Watching      int     `json:"watching"`
	Watched       int     `json:"watched"`
	AverageRating float64 `json:"averageRating"`
}

var (
	// ErrItemNotFound is returned when no item has the requested id.
	ErrItemNotFound = errors.New("watchlist item not found")
	// ErrInvalidItem wraps validation failures.
	ErrInvalidItem = errors.New("invalid watchlist item")
	// ErrCorrupt wraps a stored watchlist that is not a JSON array of items.
	ErrCorrupt = errors.New("watchlist file is not a valid item list")
)

// ItemID builds the conventional "<mediaType>-<tmdbId>" identifier.
func ItemID(m MediaType, tmdbID int) string {
	return string(m) + "-" + strconv.Itoa(tmdbID)
}

// Validate checks the fields Upsert depends on.
func (it Item) Validate() error {
	switch {
	case it.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidItem)
	case it.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidItem)
	case !it.MediaType.Valid():
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidItem, it.MediaType)
	case !it.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidItem, it.Status)
	case it.CurrentSeason < 0 || it.CurrentEpisode < 0:
		return fmt.Errorf("%w: season and episode must not be negative", ErrInvalidItem)
	}
	return nil
}
