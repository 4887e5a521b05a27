package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextup-app/nextup/internal/api"
	"github.com/nextup-app/nextup/internal/appconfig"
	"github.com/nextup-app/nextup/internal/backup"
	"github.com/nextup-app/nextup/internal/config"
	"github.com/nextup-app/nextup/internal/storage"
	"github.com/nextup-app/nextup/internal/watchlist"
)

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write the app config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := newGateway(cfg).ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Print the config file contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		content, err := newGateway(cfg).ReadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write <content>",
	Short: "Replace the config file contents",
	Long: `Replace the config file contents. Pass "-" to read the content from stdin.

Examples:
  nextup config write '{"tmdbApiKey":"abc123"}'
  cat config.json | nextup config write -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := argOrStdin(cmd, args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		msg, err := newGateway(cfg).WriteConfig(content)
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		return nil
	},
}

var configAPIKeyCmd = &cobra.Command{
	Use:   "apikey [get|set <key>]",
	Short: "Show or set the TMDB API key stored in the config file",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gw := newGateway(cfg)

		if len(args) == 0 || args[0] == "get" {
			key, err := appconfig.APIKey(gw)
			if err != nil {
				return err
			}
			if key == "" {
				printWarning("no API key configured")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		}

		if args[0] != "set" || len(args) != 2 {
			return fmt.Errorf("usage: nextup config apikey [get|set <key>]")
		}
		if err := appconfig.SetAPIKey(gw, args[1]); err != nil {
			return err
		}
		printSuccess("API key saved")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configReadCmd, configWriteCmd, configAPIKeyCmd)
}

// --- watchlist ---

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the watchlist file",
}

var watchlistLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Print the raw watchlist file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := newGateway(cfg).LoadWatchlist()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), data)
		return nil
	},
}

var watchlistSaveCmd = &cobra.Command{
	Use:   "save <data>",
	Short: `Replace the watchlist file ("-" reads stdin)`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := argOrStdin(cmd, args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		msg, err := newGateway(cfg).SaveWatchlist(data)
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		return nil
	},
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watchlist items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		mediaType, _ := cmd.Flags().GetString("type")

		svc, err := newWatchlistService()
		if err != nil {
			return err
		}

		items, err := svc.Filter(watchlist.Status(status), watchlist.MediaType(mediaType))
		if err != nil {
			return err
		}

		if len(items) == 0 {
			printWarning("no items")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, it := range items {
			line := fmt.Sprintf("%-14s %-20s %s", it.ID, it.Status, it.Title)
			if it.Rating > 0 {
				line += fmt.Sprintf("  (%.1f)", it.Rating)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace an item",
	Long: `Add or replace an item given as JSON. The id defaults to <mediaType>-<tmdbId>.

Example:
  nextup watchlist add --json '{"tmdbId":550,"mediaType":"movie","title":"Fight Club","status":"completed"}'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("json")
		if raw == "" {
			return fmt.Errorf("--json is required")
		}
		raw, err := argOrStdin(cmd, raw)
		if err != nil {
			return err
		}

		var it watchlist.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return fmt.Errorf("parsing item: %w", err)
		}
		if it.ID == "" && it.TMDBID != 0 {
			it.ID = watchlist.ItemID(it.MediaType, it.TMDBID)
		}

		svc, err := newWatchlistService()
		if err != nil {
			return err
		}
		saved, err := svc.Upsert(it)
		if err != nil {
			return err
		}
		printSuccess("Saved %s (%s)", saved.Title, saved.ID)
		return nil
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an item by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newWatchlistService()
		if err != nil {
			return err
		}
		if err := svc.Remove(args[0]); err != nil {
			if errors.Is(err, watchlist.ErrItemNotFound) {
				return fmt.Errorf("no item with id %s", args[0])
			}
			return err
		}
		printSuccess("Removed %s", args[0])
		return nil
	},
}

var watchlistStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show watchlist statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newWatchlistService()
		if err != nil {
			return err
		}
		st, err := svc.Stats()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "total:     %d\n", st.TotalItems)
		fmt.Fprintf(out, "unwatched: %d\n", st.Unwatched)
		fmt.Fprintf(out, "watching:  %d\n", st.Watching)
		fmt.Fprintf(out, "watched:   %d\n", st.Watched)
		fmt.Fprintf(out, "rating:    %.1f\n", st.AverageRating)
		return nil
	},
}

var watchlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newWatchlistService()
		if err != nil {
			return err
		}
		if err := svc.Clear(); err != nil {
			return err
		}
		printSuccess("Watchlist cleared")
		return nil
	},
}

func init() {
	watchlistListCmd.Flags().String("status", "", "only items with this status")
	watchlistListCmd.Flags().String("type", "", "only items of this media type (movie, tv, anime)")
	watchlistAddCmd.Flags().String("json", "", `item as JSON ("-" reads stdin)`)
	watchlistCmd.AddCommand(watchlistLoadCmd, watchlistSaveCmd, watchlistListCmd,
		watchlistAddCmd, watchlistRemoveCmd, watchlistStatsCmd, watchlistClearCmd)
}

func newWatchlistService() (*watchlist.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return watchlist.NewService(newGateway(cfg)), nil
}

// --- backup ---

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot and restore the data files",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the config and watchlist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")
		return withSnapshots(true, func(cfg config.Config, store *storage.Store) error {
			snap, err := backup.Capture(newGateway(cfg), store, label)
			if err != nil {
				return err
			}
			printSuccess("Snapshot %s created", snap.ID)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		err := withSnapshots(false, func(_ config.Config, store *storage.Store) error {
			snaps, err := store.ListSnapshots(limit)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printWarning("no snapshots")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, s := range snaps {
				cfgMark := "-"
				if s.Config != nil {
					cfgMark = "config"
				}
				fmt.Fprintf(out, "%s  %s  %-6s  %s\n",
					s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04:05"), cfgMark, s.Label)
			}
			return nil
		})
		if errors.Is(err, storage.ErrNoDatabase) {
			printWarning("no snapshots")
			return nil
		}
		return err
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Write a snapshot back to the data files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshots(false, func(cfg config.Config, store *storage.Store) error {
			snap, err := backup.Restore(newGateway(cfg), store, args[0])
			if err != nil {
				return err
			}
			printSuccess("Restored snapshot %s", snap.ID)
			return nil
		})
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshots(false, func(_ config.Config, store *storage.Store) error {
			if err := store.DeleteSnapshot(args[0]); err != nil {
				return err
			}
			printSuccess("Deleted snapshot %s", args[0])
			return nil
		})
	},
}

func init() {
	backupCreateCmd.Flags().String("label", "", "free-form label for the snapshot")
	backupListCmd.Flags().Int("limit", 20, "maximum number of snapshots to list")
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupDeleteCmd)
}

// withSnapshots opens the snapshot store for fn. Only create may make the
// data directory and database.
func withSnapshots(create bool, fn func(config.Config, *storage.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	open := storage.OpenExisting
	if create {
		open = storage.Open
	}
	store, err := open(dataDir(cfg))
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// --- settings ---

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage nextup's own settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "%-18s %-24s %s\n", k.Key, k.Value, colorize(colorCyan, "$"+k.EnvVar))
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("%s = %s", args[0], args[1])
		return nil
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a persisted setting so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("%s reset to default", args[0])
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where settings are stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.Location())
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsUnsetCmd, settingsPathCmd)
}

// --- invoke ---

var invokeCmd = &cobra.Command{
	Use:   "invoke <command> [payload]",
	Short: "Run a data store command through the running bridge",
	Long: `Run a data store command through the running bridge.

Commands: ` + strings.Join(api.Commands, ", ") + `

Examples:
  nextup invoke load_watchlist
  nextup invoke save_watchlist '[]'
  nextup invoke write_config - < config.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		command := args[0]
		params := map[string]string{}
		if arg := api.PayloadArg(command); arg != "" {
			if len(args) < 2 {
				return fmt.Errorf("%s requires a payload", command)
			}
			payload, err := argOrStdin(cmd, args[1])
			if err != nil {
				return err
			}
			params[arg] = payload
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}
		result, err := client.invoke(cmd.Context(), command, params)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

// argOrStdin returns v, or all of stdin when v is "-".
func argOrStdin(cmd *cobra.Command, v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
