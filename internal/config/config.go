// Package config provides configuration loading for the console binaries.
//
// Values come from the process environment, optionally seeded from a .env
// file in the working directory. Command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultPort            = "3000"
	DefaultDailyAPIURL     = "https://api.daily.co/v1"
	DefaultProviderTimeout = 10 * time.Second
	DefaultTokenLifetime   = 600 * time.Second
)

// Settings store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreRemote = "remote"
)

// Errors returned by Validate.
var (
	ErrMissingDailyKey = errors.New("config: DAILY_API_KEY is required")
	ErrMissingBotURL   = errors.New("config: BOT_RUNTIME_URL is required")
	ErrUnknownStore    = errors.New("config: unknown settings store")
	ErrMissingRedisURL = errors.New("config: REDIS_URL is required for the redis settings store")
	ErrMissingRemote   = errors.New("config: SETTINGS_URL is required for the remote settings store")
)

// Config is the full console configuration.
type Config struct {
	Port     string
	LogLevel string
	Debug    bool

	// Room and token provider.
	DailyAPIKey string
	DailyAPIURL string

	// Bot runtime.
	BotRuntimeURL    string
	BotRuntimeAPIKey string

	ProviderTimeout time.Duration
	TokenLifetime   time.Duration

	// Settings persistence.
	SettingsStore string
	RedisURL      string
	SettingsURL   string

	// Registry overrides.
	RegistryFile string
	OpenAIAPIKey string
}

// LoadDotEnv loads .env files if present. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// FromEnv builds a Config from environment variables.
func FromEnv() *Config {
	return &Config{
		Port:             Env("PORT", DefaultPort),
		LogLevel:         Env("LOG_LEVEL", "info"),
		Debug:            EnvBool("DEBUG", false),
		DailyAPIKey:      os.Getenv("DAILY_API_KEY"),
		DailyAPIURL:      Env("DAILY_API_URL", DefaultDailyAPIURL),
		BotRuntimeURL:    Env("BOT_RUNTIME_URL", os.Getenv("NEXT_PUBLIC_BACKEND_URL")),
		BotRuntimeAPIKey: os.Getenv("BOT_RUNTIME_API_KEY"),
		ProviderTimeout:  EnvDuration("PROVIDER_TIMEOUT", DefaultProviderTimeout),
		TokenLifetime:    EnvDuration("TOKEN_LIFETIME", DefaultTokenLifetime),
		SettingsStore:    Env("SETTINGS_STORE", StoreMemory),
		RedisURL:         os.Getenv("REDIS_URL"),
		SettingsURL:      os.Getenv("SETTINGS_URL"),
		RegistryFile:     os.Getenv("REGISTRY_FILE"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}
}

// BindFlags registers flags that override the environment values.
// Call fs.Parse afterwards.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "HTTP listen port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable request logging")
	fs.StringVar(&c.DailyAPIURL, "daily-url", c.DailyAPIURL, "room provider API base URL")
	fs.StringVar(&c.BotRuntimeURL, "bot-url", c.BotRuntimeURL, "bot runtime base URL")
	fs.DurationVar(&c.ProviderTimeout, "provider-timeout", c.ProviderTimeout, "timeout for each provider call")
	fs.DurationVar(&c.TokenLifetime, "token-lifetime", c.TokenLifetime, "meeting token lifetime")
	fs.StringVar(&c.SettingsStore, "settings-store", c.SettingsStore, "settings store driver (memory, redis, remote)")
	fs.StringVar(&c.RegistryFile, "registry", c.RegistryFile, "YAML file overriding the provider registry")
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.DailyAPIKey == "" {
		return ErrMissingDailyKey
	}
	if c.BotRuntimeURL == "" {
		return ErrMissingBotURL
	}
	switch c.SettingsStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return ErrMissingRedisURL
		}
	case StoreRemote:
		if c.SettingsURL == "" {
			return ErrMissingRemote
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.SettingsStore)
	}
	return nil
}

// Env returns the value of key, or fallback when unset or empty.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvBool parses key as a boolean.
func EnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// EnvDuration parses key as a duration. Bare integers are read as seconds.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
