package api

import (
	"errors"
	"testing"

	"github.com/nextup-app/nextup/internal/datastore"
)

// recordingGateway records which operation Dispatch selected.
type recordingGateway struct {
	called  string
	payload string
}

func (g *recordingGateway) ConfigPath() (string, error) {
	g.called = "path"
	return "/x/config.json", nil
}

func (g *recordingGateway) ReadConfig() (string, error) {
	g.called = "read"
	return "", &datastore.Error{Kind: datastore.KindNotFound}
}

func (g *recordingGateway) WriteConfig(content string) (string, error) {
	g.called, g.payload = "write", content
	return datastore.ConfigSaved, nil
}

func (g *recordingGateway) LoadWatchlist() (string, error) {
	g.called = "load"
	return "[]", nil
}

func (g *recordingGateway) SaveWatchlist(data string) (string, error) {
	g.called, g.payload = "save", data
	return datastore.WatchlistSaved, nil
}

func TestDispatch_Routes(t *testing.T) {
	tests := []struct {
		command string
		args    map[string]string
		called  string
		want    string
	}{
		{CmdGetConfigPath, nil, "path", "/x/config.json"},
		{CmdWriteConfig, map[string]string{"content": "c"}, "write", "Config saved successfully"},
		{CmdLoadWatchlist, nil, "load", "[]"},
		{CmdSaveWatchlist, map[string]string{"data": "d"}, "save", "Saved successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			g := &recordingGateway{}
			got, err := Dispatch(g, tt.command, tt.args)
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if g.called != tt.called {
				t.Errorf("called = %q, want %q", g.called, tt.called)
			}
			if got != tt.want {
				t.Errorf("result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDispatch_ReadConfigErrorPassesThrough(t *testing.T) {
	_, err := Dispatch(&recordingGateway{}, CmdReadConfig, nil)
	if !errors.Is(err, datastore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDispatch_EmptyPayloadIsAllowed(t *testing.T) {
	g := &recordingGateway{payload: "unset"}
	if _, err := Dispatch(g, CmdWriteConfig, map[string]string{"content": ""}); err != nil {
		t.Fatal(err)
	}
	if g.payload != "" {
		t.Errorf("payload = %q, want empty", g.payload)
	}
}

func TestDispatch_Errors(t *testing.T) {
	var argErr *ArgError
	if _, err := Dispatch(&recordingGateway{}, CmdSaveWatchlist, nil); !errors.As(err, &argErr) || argErr.Arg != "data" {
		t.Errorf("missing data error = %v", err)
	}
	if _, err := Dispatch(&recordingGateway{}, "nope", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown command error = %v", err)
	}
}
