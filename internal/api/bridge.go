package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/netutil"

	"github.com/nextup-app/nextup/internal/datastore"
	"github.com/nextup-app/nextup/internal/watchlist"
)

const maxBodySize = 10 << 20 // 10MB

// BridgeDeps holds what the HTTP bridge serves.
type BridgeDeps struct {
	Gateway   Gateway
	Watchlist *watchlist.Service // optional; item routes are not mounted when nil
	Token     string
}

// InvokeResponse is the body of every /invoke reply. Result is set on
// success, Error and Kind on failure.
type InvokeResponse struct {
	OK     bool    `json:"ok"`
	Result *string `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	Kind   string  `json:"kind,omitempty"`
}

// NewBridgeHandler returns the loopback HTTP bridge used by the front-end.
func NewBridgeHandler(deps BridgeDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/commands", handleListCommands)
		r.Post("/invoke/{command}", handleInvoke(deps.Gateway))

		if deps.Watchlist != nil {
			r.Get("/watchlist/items", handleListItems(deps.Watchlist))
			r.Delete("/watchlist/items", handleClearItems(deps.Watchlist))
			r.Get("/watchlist/items/{id}", handleGetItem(deps.Watchlist))
			r.Put("/watchlist/items/{id}", handlePutItem(deps.Watchlist))
			r.Delete("/watchlist/items/{id}", handleDeleteItem(deps.Watchlist))
			r.Get("/watchlist/stats", handleStats(deps.Watchlist))
		}
	})

	return r
}

// Listen opens a TCP listener on addr accepting at most maxConns concurrent
// connections. maxConns <= 0 means unlimited.
func Listen(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleListCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"commands": Commands})
}

func handleInvoke(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		command := chi.URLParam(r, "command")

		args, err := decodeArgs(w, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		result, err := Dispatch(gw, command, args)
		if err != nil {
			code, kind := classify(err)
			slog.Debug("invoke failed", "command", command, "kind", kind, "error", err)
			writeJSON(w, code, InvokeResponse{Error: err.Error(), Kind: kind})
			return
		}
		writeJSON(w, http.StatusOK, InvokeResponse{OK: true, Result: &result})
	}
}

// decodeArgs reads an optional JSON object of string arguments. An empty
// body means no arguments.
func decodeArgs(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	args := map[string]string{}
	if strings.TrimSpace(string(body)) == "" {
		return args, nil
	}
	if err := json.Unmarshal(body, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func classify(err error) (int, string) {
	var argErr *ArgError
	switch {
	case errors.As(err, &argErr):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrUnknownCommand):
		return http.StatusNotFound, "unknown_command"
	}
	switch datastore.KindOf(err) {
	case datastore.KindNotFound:
		return http.StatusNotFound, datastore.KindNotFound.String()
	case datastore.KindIO:
		return http.StatusInternalServerError, datastore.KindIO.String()
	}
	return http.StatusInternalServerError, "internal"
}

// --- watchlist items ---

func handleListItems(svc *watchlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.Filter(watchlist.Status(q.Get("status")), watchlist.MediaType(q.Get("type")))
		if err != nil {
			watchlistError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleGetItem(svc *watchlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := svc.Get(chi.URLParam(r, "id"))
		if err != nil {
			watchlistError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

func handlePutItem(svc *watchlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var it watchlist.Item
		if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		id := chi.URLParam(r, "id")
		if it.ID != "" && it.ID != id {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "body id %q does not match path id %q", it.ID, id)
			return
		}
		it.ID = id

		saved, err := svc.Upsert(it)
		if err != nil {
			watchlistError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleDeleteItem(svc *watchlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Remove(chi.URLParam(r, "id")); err != nil {
			watchlistError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleClearItems(svc *watchlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(); err != nil {
			watchlistError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleStats(svc *watchlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats()
		if err != nil {
			watchlistError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func watchlistError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, watchlist.ErrItemNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.Is(err, watchlist.ErrInvalidItem):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, watchlist.ErrCorrupt):
		httpError(w, http.StatusUnprocessableEntity, "corrupt_watchlist", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
