// Package web serves the console HTTP API: session provisioning, call
// settings editing, reference data and a live feed of provisioning events.
package web

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/rtvi-console/pkg/bot"
	"github.com/teslashibe/rtvi-console/pkg/callconfig"
	"github.com/teslashibe/rtvi-console/pkg/hub"
	"github.com/teslashibe/rtvi-console/pkg/registry"
	"github.com/teslashibe/rtvi-console/pkg/session"
	"github.com/teslashibe/rtvi-console/pkg/settings"
)

// SessionsPath is the websocket endpoint for provisioning events.
const SessionsPath = "/ws/sessions"

// Provisioner starts a live session. Implemented by *session.Launcher.
type Provisioner interface {
	Provision(ctx context.Context, cfg callconfig.SessionConfig) (*session.Result, error)
}

// StatusChecker reports bot process state. Implemented by *bot.Client.
type StatusChecker interface {
	Status(ctx context.Context, pid int) (*bot.Status, error)
}

// Config wires the server's collaborators.
type Config struct {
	Port        string
	Debug       bool
	Provisioner Provisioner
	Bots        StatusChecker
	Store       settings.Store
	Registry    *registry.Registry
	Events      *hub.Hub
	Logger      *slog.Logger
}

// Server is the console HTTP server.
type Server struct {
	app    *fiber.App
	port   string
	cfg    Config
	logger *slog.Logger
}

// NewServer builds the fiber app and registers every route.
func NewServer(cfg Config) *Server {
	if cfg.Registry == nil {
		cfg.Registry = registry.Default()
	}
	if cfg.Store == nil {
		cfg.Store = settings.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		port:   cfg.Port,
		cfg:    cfg,
		logger: cfg.Logger.With("component", "web.server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "RTVI Console",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if cfg.Debug {
		app.Use(logger.New())
	}

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Post("/connect", s.handleConnect)
	api.Get("/registry", s.handleRegistry)
	api.Get("/bots/:pid/status", s.handleBotStatus)

	for _, path := range []string{"/call-settings", "/call-settings/:clientId"} {
		api.Get(path, s.handleGetSettings)
		api.Put(path, s.handlePutSettings)
		api.Patch(path, s.handlePatchSettings)
		api.Get(path+"/flat", s.handleFlatSettings)
	}

	if cfg.Events != nil {
		cfg.Events.RegisterRoutes(app, SessionsPath)
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured port. It blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("console listening", "addr", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// SessionObserver publishes provisioning events to h.
func SessionObserver(h *hub.Hub) session.Observer {
	return func(ev session.Event) {
		h.Publish(hub.TypeSession, ev)
	}
}

// handleError renders every error as {"error": ...}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= 500 {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
