package bot

import (
	"errors"
	"fmt"
)

// ErrMissingURL indicates the runtime base URL was not provided.
var ErrMissingURL = errors.New("bot: runtime URL is required")

// APIError represents an error response from the bot runtime.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("bot: runtime error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true for an unknown bot process.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsRetryable returns true if the request could be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
