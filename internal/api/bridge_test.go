package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nextup-app/nextup/internal/datastore"
	"github.com/nextup-app/nextup/internal/watchlist"
)

const testToken = "test-token-12345"

func setupBridge(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	gw := datastore.New(datastore.FixedDir(dir))
	h := NewBridgeHandler(BridgeDeps{
		Gateway:   gw,
		Watchlist: watchlist.NewService(gw),
		Token:     testToken,
	})
	return h, dir
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func invoke(t *testing.T, h http.Handler, command, body string) (int, InvokeResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/invoke/"+command, body, testToken))

	var resp InvokeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding %s response: %v", command, err)
	}
	return rr.Code, resp
}

func TestHealthNoAuth(t *testing.T) {
	h, _ := setupBridge(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestInvoke_RequiresToken(t *testing.T) {
	h, _ := setupBridge(t)

	for _, tok := range []string{"", "wrong"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPost, "/invoke/read_config", "", tok))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", tok, rr.Code)
		}
	}
}

func TestInvoke_Scenario(t *testing.T) {
	h, dir := setupBridge(t)

	code, resp := invoke(t, h, "write_config", `{"content":"{\"a\":1}"}`)
	if code != http.StatusOK || !resp.OK || *resp.Result != "Config saved successfully" {
		t.Fatalf("write_config = %d %+v", code, resp)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil || string(raw) != `{"a":1}` {
		t.Fatalf("config.json = %q, %v", raw, err)
	}

	code, resp = invoke(t, h, "read_config", "")
	if code != http.StatusOK || *resp.Result != `{"a":1}` {
		t.Fatalf("read_config = %d %+v", code, resp)
	}

	_, resp = invoke(t, h, "load_watchlist", "")
	if *resp.Result != "[]" {
		t.Errorf("load_watchlist = %q, want []", *resp.Result)
	}

	_, resp = invoke(t, h, "save_watchlist", `{"data":"[1,2,3]"}`)
	if *resp.Result != "Saved successfully" {
		t.Errorf("save_watchlist = %q", *resp.Result)
	}

	_, resp = invoke(t, h, "load_watchlist", "")
	if *resp.Result != "[1,2,3]" {
		t.Errorf("load_watchlist = %q, want [1,2,3]", *resp.Result)
	}

	_, resp = invoke(t, h, "get_config_path", "")
	if *resp.Result != filepath.Join(dir, "config.json") {
		t.Errorf("get_config_path = %q", *resp.Result)
	}
}

func TestInvoke_ReadConfigNotFound(t *testing.T) {
	h, _ := setupBridge(t)

	code, resp := invoke(t, h, "read_config", "")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
	if resp.OK || resp.Result != nil {
		t.Errorf("expected failure, got %+v", resp)
	}
	if resp.Error != "Config file not found" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Kind != "not_found" {
		t.Errorf("kind = %q, want not_found", resp.Kind)
	}
}

func TestInvoke_EmptyConfigIsResult(t *testing.T) {
	h, _ := setupBridge(t)
	invoke(t, h, "write_config", `{"content":""}`)

	code, resp := invoke(t, h, "read_config", "")
	if code != http.StatusOK || resp.Result == nil || *resp.Result != "" {
		t.Fatalf("read_config = %d %+v, want empty result", code, resp)
	}
}

func TestInvoke_IOFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	os.WriteFile(blocker, []byte("x"), 0o644)
	h := NewBridgeHandler(BridgeDeps{
		Gateway: datastore.New(datastore.FixedDir(filepath.Join(blocker, "sub"))),
		Token:   testToken,
	})

	code, resp := invoke(t, h, "save_watchlist", `{"data":"[]"}`)
	if code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", code)
	}
	if resp.Kind != "io_failure" || resp.Error == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestInvoke_MissingArgument(t *testing.T) {
	h, _ := setupBridge(t)

	code, resp := invoke(t, h, "write_config", `{}`)
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
	if resp.Kind != "invalid_request" {
		t.Errorf("kind = %q", resp.Kind)
	}
}

func TestInvoke_UnknownCommand(t *testing.T) {
	h, _ := setupBridge(t)

	code, resp := invoke(t, h, "format_disk", "")
	if code != http.StatusNotFound || resp.Kind != "unknown_command" {
		t.Errorf("unknown command = %d %+v", code, resp)
	}
}

func TestInvoke_MalformedBody(t *testing.T) {
	h, _ := setupBridge(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/invoke/write_config", `{"content": 5}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestCommandsList(t *testing.T) {
	h, _ := setupBridge(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/commands", "", testToken))

	var body struct {
		Commands []string `json:"commands"`
	}
	json.NewDecoder(rr.Body).Decode(&body)
	if len(body.Commands) != 5 {
		t.Errorf("commands = %v", body.Commands)
	}
}

func TestWatchlistItems(t *testing.T) {
	h, _ := setupBridge(t)

	put := func(id, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPut, "/watchlist/items/"+id, body, testToken))
		return rr
	}

	rr := put("movie-550", `{"tmdbId":550,"mediaType":"movie","title":"Fight Club","status":"completed","rating":8.4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d; body = %s", rr.Code, rr.Body.String())
	}
	put("tv-1399", `{"tmdbId":1399,"mediaType":"tv","title":"Game of Thrones","status":"watching"}`)

	if rr := put("tv-1", `{"id":"tv-2","mediaType":"tv","title":"x","status":"watching"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("mismatched id status = %d, want 400", rr.Code)
	}
	if rr := put("tv-3", `{"mediaType":"book","title":"x","status":"watching"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid item status = %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/watchlist/items?type=tv", "", testToken))
	var items []watchlist.Item
	json.NewDecoder(rr.Body).Decode(&items)
	if len(items) != 1 || items[0].ID != "tv-1399" {
		t.Errorf("filtered items = %+v", items)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/watchlist/items?status=binged", "", testToken))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/watchlist/stats", "", testToken))
	var st watchlist.Stats
	json.NewDecoder(rr.Body).Decode(&st)
	if st.TotalItems != 2 || st.Watched != 1 || st.Watching != 1 || st.AverageRating != 8.4 {
		t.Errorf("stats = %+v", st)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/watchlist/items/movie-550", "", testToken))
	if rr.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/watchlist/items/movie-550", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("GET deleted item = %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/watchlist/items", "", testToken))
	if rr.Code != http.StatusNoContent {
		t.Errorf("clear status = %d, want 204", rr.Code)
	}
	_, resp := invoke(t, h, "load_watchlist", "")
	if *resp.Result != "[]" {
		t.Errorf("after clear load_watchlist = %q", *resp.Result)
	}
}

func TestWatchlistItems_Corrupt(t *testing.T) {
	h, _ := setupBridge(t)
	invoke(t, h, "save_watchlist", `{"data":"not json"}`)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/watchlist/items", "", testToken))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestListen_LimitsConnections(t *testing.T) {
	ln, err := Listen("127.0.0.1:0", 2)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	if ln.Addr().String() == "" {
		t.Error("listener has no address")
	}
}
