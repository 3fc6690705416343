package settings

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

	"github.com/teslashibe/rtvi-console/internal/httpc"
	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

// remotePath is the backend collection for call settings.
const remotePath = "/twilio/call-settings"

// RemoteStore delegates to a backend exposing
// GET/PUT /twilio/call-settings[/{clientId}].
type RemoteStore struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewRemoteStore creates a store for the backend at baseURL. A nil client
// uses the shared default.
func NewRemoteStore(baseURL string, client *http.Client, logger *slog.Logger) *RemoteStore {
	if client == nil {
		client = httpc.Client
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With("component", "settings.remote"),
	}
}

// RemoteError is a non-2xx response from the settings backend.
type RemoteError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("settings: backend error %d: %s", e.StatusCode, e.Body)
}

// Get implements Store. A 404 or a document without a config counts as
// nothing stored.
func (s *RemoteStore) Get(ctx context.Context, clientID string) (*callconfig.CallSettings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(clientID), nil)
	if err != nil {
		return nil, fmt.Errorf("settings: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readRemoteError(resp)
	}

	var cs callconfig.CallSettings
	if err := json.NewDecoder(resp.Body).Decode(&cs); err != nil {
		return nil, fmt.Errorf("settings: decode: %w", err)
	}
	if cs.Config == nil {
		return nil, nil
	}
	return &cs, nil
}

// Put implements Store.
func (s *RemoteStore) Put(ctx context.Context, clientID string, cs *callconfig.CallSettings) error {
	if cs == nil {
		return ErrNilSettings
	}
	body, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url(clientID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("settings: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("settings: put: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readRemoteError(resp)
	}
	s.logger.Debug("settings saved", "client_id", clientID)
	return nil
}

// Close implements Store.
func (s *RemoteStore) Close() error {
	return nil
}

func (s *RemoteStore) url(clientID string) string {
	if clientID == "" {
		return s.baseURL + remotePath
	}
	return s.baseURL + remotePath + "/" + url.PathEscape(clientID)
}

func readRemoteError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
