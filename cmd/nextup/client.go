package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nextup-app/nextup/internal/api"
	"github.com/nextup-app/nextup/internal/config"
)

// apiClient talks to a running bridge.
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var newAPIClient = func(cfg config.Config) (*apiClient, error) {
	token, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return nil, fmt.Errorf("getting API token: %w", err)
	}

	return &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge not reachable, is `nextup serve` running? (%w)", err)
	}
	return resp, nil
}

// invoke runs one bridge command. Command failures come back as errors
// carrying the bridge's message verbatim.
func (c *apiClient) invoke(ctx context.Context, command string, args map[string]string) (string, error) {
	var body any
	if len(args) > 0 {
		body = args
	}
	resp, err := c.do(ctx, http.MethodPost, "/invoke/"+command, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var out api.InvokeResponse
	if err := json.Unmarshal(raw, &out); err != nil || (!out.OK && out.Error == "") {
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if !out.OK {
		return "", fmt.Errorf("%s", out.Error)
	}
	if out.Result == nil {
		return "", nil
	}
	return *out.Result, nil
}
