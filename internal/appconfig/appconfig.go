// Package appconfig reads and updates individual fields of the front-end's
// config.json, leaving fields it does not know untouched.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextup-app/nextup/internal/datastore"
)

// APIKeyField is the config.json field holding the TMDB API key.
const APIKeyField = "tmdbApiKey"

// ErrMalformed wraps a config.json that is not a JSON object.
var ErrMalformed = errors.New("config.json is not a JSON object")

// Store is the raw config text store. Implemented by *datastore.Gateway.
type Store interface {
	ReadConfig() (string, error)
	WriteConfig(content string) (string, error)
}

// Load returns config.json as a field map. A missing file yields an empty map.
func Load(s Store) (map[string]json.RawMessage, error) {
	raw, err := s.ReadConfig()
	if errors.Is(err, datastore.ErrNotFound) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if strings.TrimSpace(raw) == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

// APIKey returns the stored TMDB API key, or "" when unset.
func APIKey(s Store) (string, error) {
	fields, err := Load(s)
	if err != nil {
		return "", err
	}
	raw, ok := fields[APIKeyField]
	if !ok {
		return "", nil
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return "", fmt.Errorf("%s is not a string: %w", APIKeyField, err)
	}
	return key, nil
}

// SetAPIKey stores key in config.json, preserving all other fields. A
// malformed file is replaced by a fresh object holding only the key. The
// file is written indented, as the front-end does.
func SetAPIKey(s Store, key string) error {
	fields, err := Load(s)
	switch {
	case errors.Is(err, ErrMalformed):
		slog.Warn("replacing malformed config.json", "error", err)
		fields = map[string]json.RawMessage{}
	case err != nil:
		return err
	}
	encoded, err := json.Marshal(key)
	if err != nil {
		return err
	}
	fields[APIKeyField] = encoded

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config.json: %w", err)
	}
	_, err = s.WriteConfig(string(out))
	return err
}
