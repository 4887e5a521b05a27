//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nextup", "settings.json")
	b := newFileBackend(p)

	if err := b.SetInt("server.port", 4999); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := b.SetString("log.level", "debug"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	reloaded := newFileBackend(p)
	port, ok, err := reloaded.GetInt("server.port")
	if err != nil || !ok || port != 4999 {
		t.Errorf("GetInt = %d, %v, %v", port, ok, err)
	}
	level, ok, err := reloaded.GetString("log.level")
	if err != nil || !ok || level != "debug" {
		t.Errorf("GetString = %q, %v, %v", level, ok, err)
	}

	if err := reloaded.Delete("log.level"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := newFileBackend(p).GetString("log.level"); ok {
		t.Error("log.level still present after Delete")
	}
}

func TestFileBackend_CorruptFileFallsBack(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := newFileBackend(p)
	if _, ok, _ := b.GetString("log.level"); ok {
		t.Error("expected no values from corrupt file")
	}
	if err := b.SetString("log.level", "warn"); err != nil {
		t.Fatalf("SetString after corrupt load: %v", err)
	}
}

func TestSettingsFilePath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "nextup", "settings.json")
	if got := settingsFilePath(); got != want {
		t.Errorf("settingsFilePath = %q, want %q", got, want)
	}
}

func TestKeychainFile_RoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if _, err := keychainGet("nextup", "bridge_token"); err == nil {
		t.Fatal("expected error before any secret is stored")
	}
	if err := keychainSet("nextup", "bridge_token", "s3cret"); err != nil {
		t.Fatalf("keychainSet: %v", err)
	}
	got, err := keychainGet("nextup", "bridge_token")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "s3cret" {
		t.Errorf("keychainGet = %q", got)
	}
}

func TestKeychainFile_CorruptFileIsNotOverwritten(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	p := secretsFilePath()
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(`{"other":{"k":"v"`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := keychainSet("nextup", "bridge_token", "s3cret"); err == nil {
		t.Fatal("expected parse error for corrupt secrets file")
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"other":{"k":"v"` {
		t.Errorf("secrets file rewritten: %q", data)
	}
}
