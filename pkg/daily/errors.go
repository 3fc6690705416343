package daily

import (
	"errors"
	"fmt"
)

// Sentinel errors for the daily package.
var (
	// ErrMissingAPIKey indicates the API key was not provided.
	ErrMissingAPIKey = errors.New("daily: API key is required")

	// ErrEmptyToken indicates a 2xx token response without a token.
	ErrEmptyToken = errors.New("daily: empty meeting token")

	// ErrMalformedResponse indicates a response body that did not decode.
	ErrMalformedResponse = errors.New("daily: malformed response")
)

// APIError represents an error response from the Daily API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Code is the Daily error type, e.g. "not-found".
	Code string

	// Message is the human-readable detail.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("daily: API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("daily: API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the resource was not found (HTTP 404).
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsRetryable returns true if the request could be retried by the caller.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.StatusCode >= 500
}

// ProviderError wraps a transport-level failure.
type ProviderError struct {
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", providerName, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Err: err}
}

// IsRetryable returns true if err is worth retrying at a higher level.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	var provErr *ProviderError
	return errors.As(err, &provErr)
}
