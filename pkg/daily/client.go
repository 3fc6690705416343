// Package daily is a REST client for the Daily room and meeting-token API.
// It implements room.Provider and token.Provider.
package daily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/rtvi-console/internal/httpc"
	"github.com/teslashibe/rtvi-console/pkg/room"
	"github.com/teslashibe/rtvi-console/pkg/token"
)

const (
	// DefaultBaseURL is the public Daily REST endpoint.
	DefaultBaseURL = "https://api.daily.co/v1"

	providerName = "daily"
)

// Config holds client configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.BaseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client. The caller is then responsible
// for authentication.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Client talks to the Daily REST API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates a client. The API key is required unless a custom HTTP
// client is supplied.
func New(opts ...Option) (*Client, error) {
	cfg := &Config{
		BaseURL: DefaultBaseURL,
		Timeout: httpc.DefaultTimeout,
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.HTTPClient
	if client == nil {
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		client = httpc.NewBearerClient(cfg.APIKey, cfg.Timeout)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  cfg.Logger.With("component", "daily.client"),
	}, nil
}

type roomObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type roomList struct {
	TotalCount int          `json:"total_count"`
	Data       []roomObject `json:"data"`
}

type presence struct {
	TotalCount int `json:"total_count"`
}

type tokenRequest struct {
	Properties token.Properties `json:"properties"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// ListRooms implements room.Provider.
func (c *Client) ListRooms(ctx context.Context) ([]room.Room, error) {
	var list roomList
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &list); err != nil {
		return nil, err
	}

	rooms := make([]room.Room, 0, len(list.Data))
	for _, r := range list.Data {
		rooms = append(rooms, room.Room{Name: r.Name, URL: r.URL})
	}
	return rooms, nil
}

// Presence implements room.Provider.
func (c *Client) Presence(ctx context.Context, name string) (int, error) {
	var p presence
	path := "/rooms/" + url.PathEscape(name) + "/presence"
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return 0, err
	}
	return p.TotalCount, nil
}

// CreateRoom implements room.Provider.
func (c *Client) CreateRoom(ctx context.Context, name string) (room.Room, error) {
	var r roomObject
	if err := c.do(ctx, http.MethodPost, "/rooms", map[string]string{"name": name}, &r); err != nil {
		return room.Room{}, err
	}
	return room.Room{Name: r.Name, URL: r.URL}, nil
}

// CreateMeetingToken implements token.Provider.
func (c *Client) CreateMeetingToken(ctx context.Context, props token.Properties) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/meeting-tokens", tokenRequest{Properties: props}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrEmptyToken
	}
	return resp.Token, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return WrapError(fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return WrapError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return WrapError(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	c.logger.Debug("daily request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return WrapError(fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err))
	}
	return nil
}

// parseError reads and parses an error response.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error string `json:"error"`
		Info  string `json:"info"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	if json.Unmarshal(body, &errResp) == nil && (errResp.Error != "" || errResp.Info != "") {
		apiErr.Code = errResp.Error
		apiErr.Message = errResp.Info
	}
	return apiErr
}

// Verify Client implements both provider interfaces at compile time.
var (
	_ room.Provider  = (*Client)(nil)
	_ token.Provider = (*Client)(nil)
)
