// Package watchlist layers item-level operations over the raw watchlist
// text kept by the datastore.
package watchlist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Storage is the raw text store behind the watchlist. Implemented by
// *datastore.Gateway.
type Storage interface {
	LoadWatchlist() (string, error)
	SaveWatchlist(data string) (string, error)
}

// Service reads and rewrites the whole watchlist on every mutation. The
// mutex serialises read-modify-write cycles within this process only.
type Service struct {
	store Storage
	now   func() time.Time

	mu sync.Mutex
}

// NewService returns a Service over store.
func NewService(store Storage) *Service {
	return &Service{store: store, now: time.Now}
}

// All returns every item in stored order.
func (s *Service) All() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the item with the given id.
func (s *Service) Get(id string) (Item, error) {
	items, err := s.All()
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// Upsert replaces the item with the same id or appends it. A zero
// AddedDate is set to the current time in milliseconds.
func (s *Service) Upsert(item Item) (Item, error) {
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	if item.AddedDate == 0 {
		item.AddedDate = s.now().UnixMilli()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return Item{}, err
	}

	replaced := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}

	if err := s.save(items); err != nil {
		return Item{}, err
	}
	slog.Debug("watchlist item saved", "id", item.ID, "replaced", replaced)
	return item, nil
}

// Remove deletes the item with the given id.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return ErrItemNotFound
	}
	return s.save(kept)
}

// Filter returns the items matching status and media type. An empty value
// matches anything.
func (s *Service) Filter(status Status, m MediaType) ([]Item, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidItem, status)
	}
	if m != "" && !m.Valid() {
		return nil, fmt.Errorf("%w: unknown media type %q", ErrInvalidItem, m)
	}
	items, err := s.All()
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if status != "" && it.Status != status {
			continue
		}
		if m != "" && it.MediaType != m {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Clear replaces the watchlist with an empty list.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(nil)
}

// Stats computes dashboard counters. The average rating only includes
// rated items and is rounded to one decimal.
func (s *Service) Stats() (Stats, error) {
	items, err := s.All()
	if err != nil {
		return Stats{}, err
	}
	return computeStats(items), nil
}

func computeStats(items []Item) Stats {
	st := Stats{TotalItems: len(items)}
	var sum float64
	var rated int
	for _, it := range items {
		switch it.Status {
		case PlanToWatch:
			st.Unwatched++
		case Watching, WaitingForNextEp:
			st.Watching++
		case Completed:
			st.Watched++
		}
		if it.Rating > 0 {
			sum += it.Rating
			rated++
		}
	}
	if rated > 0 {
		st.AverageRating = math.Round(sum/float64(rated)*10) / 10
	}
	return st
}

func (s *Service) load() ([]Item, error) {
	raw, err := s.store.LoadWatchlist()
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return items, nil
}

func (s *Service) save(items []Item) error {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding watchlist: %w", err)
	}
	_, err = s.store.SaveWatchlist(string(data))
	return err
}
