package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextup-app/nextup/internal/api"
	"github.com/nextup-app/nextup/internal/config"
	"github.com/nextup-app/nextup/internal/watchlist"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the command bridge (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(cmd.Context(), withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bridge and data directory status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio (overrides mcp.enabled)")
}

// pidFilePath is keyed by port and kept out of the data directory, which
// only the gateway writes create.
func pidFilePath(port int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("nextup-%d.pid", port))
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer(parent context.Context, withMCP bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	withMCP = withMCP || cfg.MCP.Enabled
	slog.Info("starting nextup", "version", version, "data_dir", dataDir(cfg), "mcp", withMCP)

	token, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}

	// Refuse to start twice against the same port.
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get("http://" + addr + "/health"); err == nil {
		resp.Body.Close()
		printWarning("nextup is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}

	pidPath := pidFilePath(cfg.Server.Port)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := newGateway(cfg)
	wl := watchlist.NewService(gw)

	ln, err := api.Listen(addr, cfg.Server.MaxConns)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           api.NewBridgeHandler(api.BridgeDeps{Gateway: gw, Watchlist: wl, Token: token}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("bridge listening", "addr", addr, "max_conns", cfg.Server.MaxConns)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Gateway: gw, Watchlist: wl, Version: version})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pidPath := pidFilePath(cfg.Server.Port)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("nextup is not running (no PID file): %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("could not find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile(pidPath)
		return fmt.Errorf("could not stop nextup (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to nextup (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		printError("settings error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	switch {
	case err != nil:
		printStatus("Bridge", "stopped")
	case resp.StatusCode == http.StatusOK:
		resp.Body.Close()
		printStatus("Bridge", "running on port %d", cfg.Server.Port)
	default:
		resp.Body.Close()
		printStatus("Bridge", "error (HTTP %d)", resp.StatusCode)
	}

	gw := newGateway(cfg)
	printStatus("Data dir", "%s", gw.DataDir())
	if p, err := gw.ConfigPath(); err == nil {
		if _, statErr := os.Stat(p); statErr == nil {
			printStatus("Config", "%s", p)
		} else {
			printStatus("Config", "not created yet")
		}
	}

	items, err := watchlist.NewService(gw).All()
	if err != nil {
		printStatus("Watchlist", "unreadable (%v)", err)
	} else {
		printStatus("Watchlist", "%d items", len(items))
	}

	printStatus("MCP", "%t", cfg.MCP.Enabled)
	printStatus("Settings", "%s", config.Location())
	return nil
}
