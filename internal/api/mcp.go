package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nextup-app/nextup/internal/watchlist"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Gateway   Gateway
	Watchlist *watchlist.Service // optional; item tools are not registered when nil
	Version   string
}

var commandDescriptions = map[string]string{
	CmdGetConfigPath: "Return the path of the nextup config.json file.",
	CmdReadConfig:    "Return the raw text of config.json. Fails with \"Config file not found\" when it does not exist.",
	CmdWriteConfig:   "Overwrite config.json with the given text.",
	CmdSaveWatchlist: "Overwrite watchlist.json with the given text (conventionally a JSON array).",
	CmdLoadWatchlist: "Return the raw text of watchlist.json, or [] when it does not exist.",
}

// NewMCPServer creates an MCP server exposing the data store commands as
// tools, plus the watchlist and config path as resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"nextup",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("nextup: read and write the local watchlist and app config."),
		server.WithRecovery(),
	)

	for _, name := range Commands {
		opts := []mcp.ToolOption{mcp.WithDescription(commandDescriptions[name])}
		if arg := PayloadArg(name); arg != "" {
			opts = append(opts, mcp.WithString(arg, mcp.Description("Text to store verbatim"), mcp.Required()))
		}
		s.AddTool(mcp.NewTool(name, opts...), mcpCommand(deps.Gateway, name))
	}

	if deps.Watchlist != nil {
		s.AddTool(
			mcp.NewTool("watchlist_add",
				mcp.WithDescription("Add or replace a watchlist item. The item is a JSON object with id, tmdbId, mediaType, title and status."),
				mcp.WithString("item", mcp.Description("Watchlist item as JSON"), mcp.Required()),
			),
			mcpWatchlistAdd(deps.Watchlist),
		)
		s.AddTool(
			mcp.NewTool("watchlist_remove",
				mcp.WithDescription("Remove a watchlist item by id (e.g. movie-550)."),
				mcp.WithString("id", mcp.Description("Item id"), mcp.Required()),
			),
			mcpWatchlistRemove(deps.Watchlist),
		)
	}

	s.AddResource(
		mcp.NewResource(
			"nextup://watchlist",
			"Watchlist",
			mcp.WithResourceDescription("Raw watchlist.json contents"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceWatchlist(deps.Gateway),
	)

	s.AddResource(
		mcp.NewResource(
			"nextup://config-path",
			"Config path",
			mcp.WithResourceDescription("Location of config.json"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceConfigPath(deps.Gateway),
	)

	return s
}

func mcpCommand(gw Gateway, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]string{}
		if arg := PayloadArg(name); arg != "" {
			v, err := req.RequireString(arg)
			if err != nil {
				return mcpError(fmt.Sprintf("%s is required", arg)), nil
			}
			args[arg] = v
		}

		result, err := Dispatch(gw, name, args)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpText(result), nil
	}
}

func mcpWatchlistAdd(svc *watchlist.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("item")
		if err != nil {
			return mcpError("item is required"), nil
		}

		var it watchlist.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return mcpError(fmt.Sprintf("invalid item JSON: %v", err)), nil
		}
		if it.ID == "" && it.TMDBID != 0 {
			it.ID = watchlist.ItemID(it.MediaType, it.TMDBID)
		}

		saved, err := svc.Upsert(it)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save item: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Saved %s (%s)", saved.Title, saved.ID)), nil
	}
}

func mcpWatchlistRemove(svc *watchlist.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		if err := svc.Remove(id); err != nil {
			if errors.Is(err, watchlist.ErrItemNotFound) {
				return mcpError(fmt.Sprintf("no item with id %s", id)), nil
			}
			return mcpError(fmt.Sprintf("failed to remove item: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Removed %s", id)), nil
	}
}

func mcpResourceWatchlist(gw Gateway) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := gw.LoadWatchlist()
		if err != nil {
			return nil, fmt.Errorf("loading watchlist: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     data,
			},
		}, nil
	}
}

func mcpResourceConfigPath(gw Gateway) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := gw.ConfigPath()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     p,
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
