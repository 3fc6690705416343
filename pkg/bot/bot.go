// Package bot is the client for the external bot runtime that joins a room
// and runs the voice pipeline.
package bot

import (
	"context"
	"log/slog"
	"time"
)

// TTSModel selects the synthesis provider and voice.
type TTSModel struct {
	Provider *string `json:"provider,omitempty"`
	Voice    *string `json:"voice,omitempty"`
}

// LLMModel selects the language model and its prompt.
type LLMModel struct {
	Provider     *string `json:"provider,omitempty"`
	Model        *string `json:"model,omitempty"`
	Customer     string  `json:"customer"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
}

// StartParams is the /start request body.
type StartParams struct {
	RoomURL   string             `json:"room_url"`
	Token     string             `json:"token"`
	Language  *string            `json:"language,omitempty"`
	TTSModel  TTSModel           `json:"tts_model"`
	LLMModel  LLMModel           `json:"llm_model"`
	VADParams map[string]float64 `json:"vad_params,omitempty"`
}

// StartResult is the /start response. Runtimes that answer with an empty
// or unrecognised body produce a zero StartResult.
type StartResult struct {
	RoomURL string `json:"room_url,omitempty"`
	Token   string `json:"token,omitempty"`
	PID     int    `json:"bot_pid,omitempty"`
}

// Status is the state of a bot process.
type Status struct {
	PID    int    `json:"bot_id"`
	Status string `json:"status"`
}

// Process states reported by the runtime.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
)

// Dispatcher starts bots. Implemented by Client and Mock.
type Dispatcher interface {
	Start(ctx context.Context, params StartParams) (*StartResult, error)
}

// Runtime is the full bot runtime surface.
type Runtime interface {
	Dispatcher
	Status(ctx context.Context, pid int) (*Status, error)
	Health(ctx context.Context) error
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets a bearer key for runtimes that require one.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
