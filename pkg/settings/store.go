// Package settings persists per-client call settings. An empty client id
// addresses the single global record.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

// Store reads and writes call settings.
type Store interface {
	// Get returns the stored settings, or nil when none are stored.
	Get(ctx context.Context, clientID string) (*callconfig.CallSettings, error)

	// Put replaces the stored settings.
	Put(ctx context.Context, clientID string, s *callconfig.CallSettings) error

	// Close releases resources held by the store.
	Close() error
}

// StoreType selects a driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeRemote StoreType = "remote"
)

// DefaultKeyPrefix namespaces redis keys.
const DefaultKeyPrefix = "rtvi:call-settings:"

// Storage keys. Client records live under clientKeyPrefix so no client id
// can collide with globalKey.
const (
	globalKey       = "global"
	clientKeyPrefix = "client:"
)

var (
	ErrInvalidStoreType = errors.New("settings: invalid store type")
	ErrInvalidConfig    = errors.New("settings: invalid store configuration")
	ErrNilSettings      = errors.New("settings: nil settings")
)

// StoreOption is a functional option for configuring a store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
	keyPrefix   string
	remoteURL   string
	httpClient  *http.Client
	logger      *slog.Logger
}

// WithRedisClient sets the client for the redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL expires redis records after ttl. Zero keeps them forever.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.keyPrefix = prefix
	}
}

// WithRemoteURL sets the backend base URL for the remote store.
func WithRemoteURL(u string) StoreOption {
	return func(c *storeConfig) {
		c.remoteURL = u
	}
}

// WithHTTPClient sets the HTTP client for the remote store.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(c *storeConfig) {
		c.httpClient = client
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// NewStore creates a Store of the given type. The redis driver requires
// WithRedisClient, the remote driver WithRemoteURL.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{
		keyPrefix: DefaultKeyPrefix,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory, "":
		return NewMemoryStore(), nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(cfg.redisClient, cfg.keyPrefix, cfg.redisTTL), nil

	case StoreTypeRemote:
		if cfg.remoteURL == "" {
			return nil, ErrInvalidConfig
		}
		return NewRemoteStore(cfg.remoteURL, cfg.httpClient, cfg.logger), nil

	default:
		return nil, ErrInvalidStoreType
	}
}

func keyFor(clientID string) string {
	if clientID == "" {
		return globalKey
	}
	return clientKeyPrefix + clientID
}
