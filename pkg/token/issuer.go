// Package token mints time-boxed meeting tokens scoped to a single room.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultLifetime is the usable session length of a token.
	DefaultLifetime = 600 * time.Second

	// GraceWindow is added to the expiry to absorb clock skew and issuance
	// latency. It does not extend the session: the holder is still ejected
	// after Lifetime of connected time.
	GraceWindow = 20 * time.Second

	// DefaultCallTimeout bounds the provider round trip.
	DefaultCallTimeout = 10 * time.Second
)

// ErrIssuance is returned when the provider did not produce a token.
var ErrIssuance = errors.New("token: issuance failed")

// Properties is the request sent to the token provider.
type Properties struct {
	RoomName          string `json:"room_name"`
	IsOwner           bool   `json:"is_owner"`
	ExpiresAt         int64  `json:"exp"`
	EjectAtTokenExp   bool   `json:"eject_at_token_exp"`
	EjectAfterElapsed int64  `json:"eject_after_elapsed"`
}

// Provider mints meeting tokens.
type Provider interface {
	CreateMeetingToken(ctx context.Context, props Properties) (string, error)
}

// AccessToken is a bearer credential bound to one room.
type AccessToken struct {
	Value     string    `json:"token"`
	RoomName  string    `json:"room_name"`
	IsOwner   bool      `json:"is_owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer mints tokens. It is safe for concurrent use.
type Issuer struct {
	provider    Provider
	lifetime    time.Duration
	callTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithDefaultLifetime sets the lifetime used when Issue gets none.
func WithDefaultLifetime(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.lifetime = d
		}
	}
}

// WithCallTimeout sets the provider call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.callTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) {
		i.logger = logger
	}
}

// NewIssuer creates an issuer over provider.
func NewIssuer(provider Provider, opts ...Option) *Issuer {
	i := &Issuer{
		provider:    provider,
		lifetime:    DefaultLifetime,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("component", "token.issuer")
	return i
}

// IssueOption tweaks a single Issue call.
type IssueOption func(*issueParams)

type issueParams struct {
	lifetime time.Duration
	owner    bool
}

// WithLifetime sets the usable session length for this token.
func WithLifetime(d time.Duration) IssueOption {
	return func(p *issueParams) {
		if d > 0 {
			p.lifetime = d
		}
	}
}

// WithOwner grants owner privileges in the room.
func WithOwner(owner bool) IssueOption {
	return func(p *issueParams) {
		p.owner = owner
	}
}

// Issue mints a token for roomName. The token expires at
// now + lifetime + GraceWindow, and the provider is told to eject the holder
// both at expiry and after lifetime of connected time.
func (i *Issuer) Issue(ctx context.Context, roomName string, opts ...IssueOption) (AccessToken, error) {
	p := issueParams{lifetime: i.lifetime}
	for _, opt := range opts {
		opt(&p)
	}

	lifetimeSecs := int64(p.lifetime / time.Second)
	exp := i.now().Unix() + lifetimeSecs + int64(GraceWindow/time.Second)

	props := Properties{
		RoomName:          roomName,
		IsOwner:           p.owner,
		ExpiresAt:         exp,
		EjectAtTokenExp:   true,
		EjectAfterElapsed: lifetimeSecs,
	}

	ctx, cancel := context.WithTimeout(ctx, i.callTimeout)
	defer cancel()

	value, err := i.provider.CreateMeetingToken(ctx, props)
	if err != nil {
		i.logger.Error("token issuance failed", "room", roomName, "error", err)
		return AccessToken{}, fmt.Errorf("%w: room %s: %w", ErrIssuance, roomName, err)
	}
	if value == "" {
		return AccessToken{}, fmt.Errorf("%w: room %s: provider returned an empty token", ErrIssuance, roomName)
	}

	i.logger.Debug("issued token", "room", roomName, "owner", p.owner, "exp", exp)
	return AccessToken{
		Value:     value,
		RoomName:  roomName,
		IsOwner:   p.owner,
		ExpiresAt: time.Unix(exp, 0),
	}, nil
}
