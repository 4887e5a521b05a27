package api

import (
	"errors"
	"fmt"
)

// Command names understood by the bridge, matching the desktop front-end.
const (
	CmdGetConfigPath = "get_config_path"
	CmdReadConfig    = "read_config"
	CmdWriteConfig   = "write_config"
	CmdSaveWatchlist = "save_watchlist"
	CmdLoadWatchlist = "load_watchlist"
)

// Commands lists every command in a stable order.
var Commands = []string{CmdGetConfigPath, CmdReadConfig, CmdWriteConfig, CmdSaveWatchlist, CmdLoadWatchlist}

// Gateway is the set of file-backed operations. Implemented by
// *datastore.Gateway.
type Gateway interface {
	ConfigPath() (string, error)
	ReadConfig() (string, error)
	WriteConfig(content string) (string, error)
	LoadWatchlist() (string, error)
	SaveWatchlist(data string) (string, error)
}

// ErrUnknownCommand is returned by Dispatch for names outside Commands.
var ErrUnknownCommand = errors.New("unknown command")

// ArgError reports a required argument that was not supplied.
type ArgError struct {
	Command string
	Arg     string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("command %s: missing required argument %q", e.Command, e.Arg)
}

// Dispatch runs one named command against gw. args carries the named string
// arguments (content for write_config, data for save_watchlist).
func Dispatch(gw Gateway, command string, args map[string]string) (string, error) {
	switch command {
	case CmdGetConfigPath:
		return gw.ConfigPath()
	case CmdReadConfig:
		return gw.ReadConfig()
	case CmdWriteConfig:
		content, ok := args["content"]
		if !ok {
			return "", &ArgError{Command: command, Arg: "content"}
		}
		return gw.WriteConfig(content)
	case CmdSaveWatchlist:
		data, ok := args["data"]
		if !ok {
			return "", &ArgError{Command: command, Arg: "data"}
		}
		return gw.SaveWatchlist(data)
	case CmdLoadWatchlist:
		return gw.LoadWatchlist()
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

// PayloadArg names the single string argument a command takes, or "" for
// commands without one.
func PayloadArg(command string) string {
	switch command {
	case CmdWriteConfig:
		return "content"
	case CmdSaveWatchlist:
		return "data"
	default:
		return ""
	}
}
