// Package room finds an idle meeting room in the provider's pool or creates
// a new one.
//
// Occupancy is polled, not reserved: two callers racing through Acquire may
// both observe the same room as empty and both receive it.
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultCallTimeout bounds each provider round trip.
const DefaultCallTimeout = 10 * time.Second

// ErrAllocation is returned when no room could be found or created.
var ErrAllocation = errors.New("room: allocation failed")

// Room is a provider-hosted meeting room.
type Room struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Provider is the room-hosting capability the allocator consumes.
type Provider interface {
	// ListRooms returns every room known to the provider.
	ListRooms(ctx context.Context) ([]Room, error)

	// Presence returns the current occupant count of a room.
	Presence(ctx context.Context, name string) (int, error)

	// CreateRoom creates a room with the given name.
	CreateRoom(ctx context.Context, name string) (Room, error)
}

// Allocator hands out unoccupied rooms. It keeps no state between calls
// and is safe for concurrent use.
type Allocator struct {
	provider    Provider
	callTimeout time.Duration
	newName     func() string
	logger      *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithCallTimeout sets the timeout applied to each provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(a *Allocator) {
		if d > 0 {
			a.callTimeout = d
		}
	}
}

// WithNameGenerator overrides the room name generator.
func WithNameGenerator(fn func() string) Option {
	return func(a *Allocator) {
		a.newName = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// NewAllocator creates an allocator over provider.
func NewAllocator(provider Provider, opts ...Option) *Allocator {
	a := &Allocator{
		provider:    provider,
		callTimeout: DefaultCallTimeout,
		newName:     uuid.NewString,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "room.allocator")
	return a
}

// ListRooms returns the provider's rooms. A provider failure yields an
// empty list so that acquisition falls back to creating a room.
func (a *Allocator) ListRooms(ctx context.Context) []Room {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	rooms, err := a.provider.ListRooms(ctx)
	if err != nil {
		a.logger.Warn("list rooms failed, falling back to create", "error", err)
		return nil
	}
	return rooms
}

// IsAvailable reports whether the room has exactly zero occupants. A
// provider failure counts as occupied.
func (a *Allocator) IsAvailable(ctx context.Context, r Room) bool {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	count, err := a.provider.Presence(ctx, r.Name)
	if err != nil {
		a.logger.Warn("presence check failed, treating room as occupied",
			"room", r.Name,
			"error", err,
		)
		return false
	}
	a.logger.Debug("presence", "room", r.Name, "occupants", count)
	return count == 0
}

// Acquire returns the first listed room that is available, in provider
// order, or creates a new one when none is.
func (a *Allocator) Acquire(ctx context.Context) (Room, error) {
	for _, r := range a.ListRooms(ctx) {
		if err := ctx.Err(); err != nil {
			return Room{}, fmt.Errorf("%w: %w", ErrAllocation, err)
		}
		if a.IsAvailable(ctx, r) {
			a.logger.Info("reusing idle room", "room", r.Name)
			return r, nil
		}
	}
	return a.Create(ctx)
}

// Create asks the provider for a new room with a generated name.
func (a *Allocator) Create(ctx context.Context) (Room, error) {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	name := a.newName()
	r, err := a.provider.CreateRoom(ctx, name)
	if err != nil {
		a.logger.Error("create room failed", "room", name, "error", err)
		return Room{}, fmt.Errorf("%w: create %s: %w", ErrAllocation, name, err)
	}
	if r.URL == "" {
		return Room{}, fmt.Errorf("%w: create %s: provider returned no url", ErrAllocation, name)
	}
	a.logger.Info("created room", "room", r.Name, "url", r.URL)
	return r, nil
}
