// Package session provisions a live voice session: it acquires a room,
// issues a token for it, resolves the submitted configuration and hands
// everything to the bot runtime.
//
// Each step runs once. Nothing is retried and nothing is released on a
// later failure; rooms and tokens expire on the provider side.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/rtvi-console/pkg/bot"
	"github.com/teslashibe/rtvi-console/pkg/callconfig"
	"github.com/teslashibe/rtvi-console/pkg/room"
	"github.com/teslashibe/rtvi-console/pkg/token"
)

// State is a provisioning stage.
type State string

const (
	StateStart          State = "start"
	StateRoomAcquired   State = "room_acquired"
	StateTokenIssued    State = "token_issued"
	StateConfigResolved State = "config_resolved"
	StateDispatched     State = "dispatched"
	StateFailed         State = "failed"
)

// RoomAllocator hands out an unoccupied room.
type RoomAllocator interface {
	Acquire(ctx context.Context) (room.Room, error)
}

// TokenIssuer mints a token for a room.
type TokenIssuer interface {
	Issue(ctx context.Context, roomName string, opts ...token.IssueOption) (token.AccessToken, error)
}

// Result is what the caller needs to join the session.
type Result struct {
	RoomURL string `json:"room_url"`
	Token   string `json:"token"`
	BotPID  int    `json:"bot_pid,omitempty"`
}

// Event describes one state transition of a provisioning request.
type Event struct {
	RequestID string    `json:"request_id"`
	State     State     `json:"state"`
	RoomURL   string    `json:"room_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Warnings  []Warning `json:"warnings,omitempty"`
	Time      time.Time `json:"time"`
}

// Observer receives state transitions. It is called synchronously and must
// not block.
type Observer func(Event)

// Launcher runs the provisioning flow. It holds no per-request state and
// is safe for concurrent use.
type Launcher struct {
	rooms      RoomAllocator
	tokens     TokenIssuer
	dispatcher bot.Dispatcher
	lifetime   time.Duration
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithTokenLifetime sets the session length granted by issued tokens.
func WithTokenLifetime(d time.Duration) Option {
	return func(l *Launcher) {
		l.lifetime = d
	}
}

// WithObserver registers a state-transition callback.
func WithObserver(fn Observer) Option {
	return func(l *Launcher) {
		l.observer = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// NewLauncher wires the three collaborators.
func NewLauncher(rooms RoomAllocator, tokens TokenIssuer, dispatcher bot.Dispatcher, opts ...Option) *Launcher {
	l := &Launcher{
		rooms:      rooms,
		tokens:     tokens,
		dispatcher: dispatcher,
		lifetime:   token.DefaultLifetime,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "session.launcher")
	return l
}

// Provision runs acquire, issue, resolve and dispatch in order. On failure
// it returns a *ProvisioningError.
func (l *Launcher) Provision(ctx context.Context, cfg callconfig.SessionConfig) (*Result, error) {
	id := uuid.NewString()
	logger := l.logger.With("request_id", id)
	l.emit(Event{RequestID: id, State: StateStart})

	rm, err := l.rooms.Acquire(ctx)
	if err != nil {
		return nil, l.failed(logger, id, "", fail(StateStart, ErrAllocation, err))
	}
	logger.Debug("room acquired", "room", rm.Name)
	l.emit(Event{RequestID: id, State: StateRoomAcquired, RoomURL: rm.URL})

	tok, err := l.tokens.Issue(ctx, rm.Name, token.WithLifetime(l.lifetime))
	if err != nil {
		return nil, l.failed(logger, id, rm.URL, fail(StateRoomAcquired, ErrIssuance, err))
	}
	l.emit(Event{RequestID: id, State: StateTokenIssued, RoomURL: rm.URL})

	params, warnings := Resolve(cfg, rm.URL, tok.Value)
	for _, w := range warnings {
		logger.Warn("config resolution", "missing", w.String())
	}
	l.emit(Event{RequestID: id, State: StateConfigResolved, RoomURL: rm.URL, Warnings: warnings})

	if err := ctx.Err(); err != nil {
		return nil, l.failed(logger, id, rm.URL, fail(StateConfigResolved, ErrDispatch, err))
	}
	started, err := l.dispatcher.Start(ctx, params)
	if err != nil {
		return nil, l.failed(logger, id, rm.URL, fail(StateConfigResolved, ErrDispatch, err))
	}

	res := &Result{RoomURL: rm.URL, Token: tok.Value}
	if started != nil {
		res.BotPID = started.PID
	}
	logger.Info("session provisioned", "room", rm.Name, "bot_pid", res.BotPID)
	l.emit(Event{RequestID: id, State: StateDispatched, RoomURL: rm.URL})
	return res, nil
}

func (l *Launcher) failed(logger *slog.Logger, id, roomURL string, perr *ProvisioningError) error {
	logger.Error("provisioning failed", "step", perr.Step, "error", perr.Err)
	l.emit(Event{RequestID: id, State: StateFailed, RoomURL: roomURL, Error: perr.Error()})
	return perr
}

func (l *Launcher) emit(ev Event) {
	if l.observer == nil {
		return
	}
	ev.Time = time.Now()
	l.observer(ev)
}
