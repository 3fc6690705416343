// Package httpc provides HTTP clients with sensible defaults.
// Use this instead of http.DefaultClient to ensure timeouts are set.
package httpc

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Default timeouts for HTTP operations.
const (
	// DefaultTimeout bounds a single provider round trip.
	DefaultTimeout         = 10 * time.Second
	DefaultConnectTimeout  = 5 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client is a shared HTTP client with production-ready defaults.
var Client = NewClient(DefaultTimeout)

// NewTransport returns the transport used by every client in this package.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewClient creates a new HTTP client with the specified timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(),
	}
}

// NewBearerClient creates a client that sends "Authorization: Bearer <token>"
// on every request. An empty token yields a plain client.
func NewBearerClient(token string, timeout time.Duration) *http.Client {
	base := NewClient(timeout)
	if token == "" {
		return base
	}
	// oauth2.NewClient picks the base client up from the context.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = base.Timeout
	return client
}
