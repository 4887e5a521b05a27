package appconfig

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nextup-app/nextup/internal/datastore"
)

func TestAPIKey_MissingConfig(t *testing.T) {
	gw := datastore.New(datastore.FixedDir(t.TempDir()))

	key, err := APIKey(gw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "" {
		t.Errorf("APIKey = %q, want empty", key)
	}
}

func TestSetAPIKey_PreservesOtherFields(t *testing.T) {
	gw := datastore.New(datastore.FixedDir(t.TempDir()))
	if _, err := gw.WriteConfig(`{"theme":"dark","tmdbApiKey":"old"}`); err != nil {
		t.Fatal(err)
	}

	if err := SetAPIKey(gw, "new-key"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}

	key, err := APIKey(gw)
	if err != nil {
		t.Fatal(err)
	}
	if key != "new-key" {
		t.Errorf("APIKey = %q, want new-key", key)
	}

	raw, err := gw.ReadConfig()
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		t.Fatalf("config.json no longer valid JSON: %v", err)
	}
	if fields["theme"] != "dark" {
		t.Errorf("theme = %v, want dark", fields["theme"])
	}
}

func TestSetAPIKey_CreatesConfig(t *testing.T) {
	gw := datastore.New(datastore.FixedDir(t.TempDir()))

	if err := SetAPIKey(gw, "abc"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	raw, err := gw.ReadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if raw != "{\n  \"tmdbApiKey\": \"abc\"\n}" {
		t.Errorf("config.json = %q", raw)
	}
}

func TestLoad_MalformedConfig(t *testing.T) {
	gw := datastore.New(datastore.FixedDir(t.TempDir()))
	if _, err := gw.WriteConfig("{oops"); err != nil {
		t.Fatal(err)
	}

	if _, err := APIKey(gw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("APIKey error = %v, want ErrMalformed", err)
	}
}

func TestSetAPIKey_ReplacesMalformedConfig(t *testing.T) {
	gw := datastore.New(datastore.FixedDir(t.TempDir()))
	if _, err := gw.WriteConfig("[1,2"); err != nil {
		t.Fatal(err)
	}

	if err := SetAPIKey(gw, "fresh"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	key, err := APIKey(gw)
	if err != nil {
		t.Fatal(err)
	}
	if key != "fresh" {
		t.Errorf("APIKey = %q, want fresh", key)
	}
}

func TestSetAPIKey_IOErrorIsNotOverwritten(t *testing.T) {
	if err := SetAPIKey(failingStore{}, "k"); datastore.KindOf(err) != datastore.KindIO {
		t.Fatalf("SetAPIKey error = %v, want io failure", err)
	}
}

type failingStore struct{}

func (failingStore) ReadConfig() (string, error) {
	return "", &datastore.Error{Kind: datastore.KindIO, Err: errors.New("disk on fire")}
}

func (failingStore) WriteConfig(string) (string, error) { return "", nil }

func TestLoad_IOErrorPropagates(t *testing.T) {
	_, err := APIKey(failingStore{})
	if datastore.KindOf(err) != datastore.KindIO {
		t.Fatalf("KindOf = %v, want io", datastore.KindOf(err))
	}
}
