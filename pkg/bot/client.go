package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/rtvi-console/internal/httpc"
)

// Client talks to the bot runtime over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates a client for the runtime at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &Config{
		BaseURL: baseURL,
		Timeout: httpc.DefaultTimeout,
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.BaseURL == "" {
		return nil, ErrMissingURL
	}

	var client *http.Client
	if cfg.APIKey != "" {
		client = httpc.NewBearerClient(cfg.APIKey, cfg.Timeout)
	} else {
		client = httpc.NewClient(cfg.Timeout)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  cfg.Logger.With("component", "bot.client"),
	}, nil
}

// Start asks the runtime to launch a bot into params.RoomURL. Any 2xx
// response is success; the body is decoded best-effort.
func (c *Client) Start(ctx context.Context, params StartParams) (*StartResult, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("bot: marshal start params: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/start", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp)
	}

	var result StartResult
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Debug("start response body truncated", "error", err, "read", len(data))
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			c.logger.Debug("ignoring non-JSON start response", "error", err)
		}
	}
	c.logger.Info("bot started", "room_url", params.RoomURL, "pid", result.PID)
	return &result, nil
}

// Status reports whether the bot process pid is still running.
func (c *Client) Status(ctx context.Context, pid int) (*Status, error) {
	resp, err := c.send(ctx, http.MethodGet, "/status/"+strconv.Itoa(pid), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("bot: decode status: %w", err)
	}
	return &st, nil
}

// Health checks the runtime health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("bot: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bot: %s %s: %w", method, path, err)
	}
	c.logger.Debug("runtime request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// parseError reads and parses an error response. The runtime answers with
// either {"error": ...} or FastAPI's {"detail": ...}.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Error != "":
			msg = errResp.Error
		case errResp.Detail != "":
			msg = errResp.Detail
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

var _ Runtime = (*Client)(nil)
