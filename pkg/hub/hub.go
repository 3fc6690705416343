package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// DefaultBacklog is how many recent messages a new subscriber receives.
const DefaultBacklog = 32

// Hub maintains the set of subscribers and broadcasts messages to them.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// backlog is a ring of recent messages, owned by Run.
	backlog     []Message
	backlogSize int

	mu      sync.RWMutex
	running atomic.Bool

	sent    atomic.Int64
	dropped atomic.Int64
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithBacklog sets how many recent messages are replayed to new
// subscribers. Zero disables replay.
func WithBacklog(n int) Option {
	return func(h *Hub) {
		if n >= 0 {
			h.backlogSize = n
		}
	}
}

// New creates a Hub. Call Run before accepting subscribers.
func New(name string, opts ...Option) *Hub {
	h := &Hub{
		name:        name,
		logger:      slog.Default(),
		clients:     make(map[*Client]bool),
		broadcast:   make(chan Message, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		backlogSize: DefaultBacklog,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "hub", "hub", name)
	return h
}

// Run is the hub's main loop. It returns when ctx is done, closing every
// subscriber. A hub cannot be restarted.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			for _, m := range h.backlog {
				select {
				case c.send <- m:
				default:
				}
			}
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber connected", "total", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber disconnected", "remaining", count)

		case m := <-h.broadcast:
			h.remember(m)
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- m:
					h.sent.Add(1)
				default:
					close(c.send)
					delete(h.clients, c)
					h.logger.Warn("dropped slow subscriber")
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remember(m Message) {
	if h.backlogSize == 0 {
		return
	}
	if len(h.backlog) == h.backlogSize {
		copy(h.backlog, h.backlog[1:])
		h.backlog = h.backlog[:len(h.backlog)-1]
	}
	h.backlog = append(h.backlog, m)
}

// Broadcast queues a message for every subscriber. It never blocks; when
// the queue is full the message is dropped.
func (h *Hub) Broadcast(m Message) {
	select {
	case h.broadcast <- m:
	default:
		h.dropped.Add(1)
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// Publish encodes v as a frame of type typ and broadcasts it.
func (h *Hub) Publish(typ string, v any) error {
	m, err := Encode(typ, v)
	if err != nil {
		return err
	}
	h.Broadcast(m)
	return nil
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats is a snapshot of hub counters.
type Stats struct {
	Clients int   `json:"clients"`
	Sent    int64 `json:"sent"`
	Dropped int64 `json:"dropped"`
}

// GetStats returns current counters.
func (h *Hub) GetStats() Stats {
	return Stats{
		Clients: h.ClientCount(),
		Sent:    h.sent.Load(),
		Dropped: h.dropped.Load(),
	}
}

// RegisterRoutes mounts the subscriber endpoint at path.
func (h *Hub) RegisterRoutes(app fiber.Router, path string) {
	app.Use(path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get(path, websocket.New(func(conn *websocket.Conn) {
		NewClient(h, conn).Run()
	}))
}
