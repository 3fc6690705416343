// console: session provisioning and call-settings API for RTVI voice bots.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/teslashibe/rtvi-console/internal/config"
	"github.com/teslashibe/rtvi-console/internal/httpc"
	"github.com/teslashibe/rtvi-console/internal/log"
	"github.com/teslashibe/rtvi-console/pkg/bot"
	"github.com/teslashibe/rtvi-console/pkg/daily"
	"github.com/teslashibe/rtvi-console/pkg/hub"
	"github.com/teslashibe/rtvi-console/pkg/registry"
	"github.com/teslashibe/rtvi-console/pkg/room"
	"github.com/teslashibe/rtvi-console/pkg/session"
	"github.com/teslashibe/rtvi-console/pkg/settings"
	"github.com/teslashibe/rtvi-console/pkg/token"
	"github.com/teslashibe/rtvi-console/pkg/web"
)

var version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg := config.FromEnv()
	fs := pflag.NewFlagSet("console", pflag.ExitOnError)
	cfg.BindFlags(fs)
	fs.Parse(os.Args[1:])

	log.Init(cfg.LogLevel)
	logger := log.L()

	if err := cfg.Validate(); err != nil {
		return err
	}

	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		return err
	}
	if cfg.OpenAIAPIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ProviderTimeout)
		n, err := reg.RefreshOpenAI(ctx, registry.NewOpenAIClient(cfg.OpenAIAPIKey, ""))
		cancel()
		if err != nil {
			logger.Warn("openai model refresh failed, using built-in list", "error", err)
		} else {
			logger.Info("openai models refreshed", "count", n)
		}
	}

	provider, err := daily.New(
		daily.WithAPIKey(cfg.DailyAPIKey),
		daily.WithBaseURL(cfg.DailyAPIURL),
		daily.WithTimeout(cfg.ProviderTimeout),
		daily.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer provider.Close()

	runtime, err := bot.New(cfg.BotRuntimeURL,
		bot.WithAPIKey(cfg.BotRuntimeAPIKey),
		bot.WithTimeout(cfg.ProviderTimeout),
		bot.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := hub.New("sessions", hub.WithLogger(logger))
	go events.Run(ctx)

	launcher := session.NewLauncher(
		room.NewAllocator(provider,
			room.WithCallTimeout(cfg.ProviderTimeout),
			room.WithLogger(logger),
		),
		token.NewIssuer(provider,
			token.WithDefaultLifetime(cfg.TokenLifetime),
			token.WithCallTimeout(cfg.ProviderTimeout),
			token.WithLogger(logger),
		),
		runtime,
		session.WithTokenLifetime(cfg.TokenLifetime),
		session.WithObserver(web.SessionObserver(events)),
		session.WithLogger(logger),
	)

	srv := web.NewServer(web.Config{
		Port:        cfg.Port,
		Debug:       cfg.Debug,
		Provisioner: launcher,
		Bots:        runtime,
		Store:       store,
		Registry:    reg,
		Events:      events,
		Logger:      logger,
	})

	logger.Info("starting console",
		"version", version,
		"port", cfg.Port,
		"settings_store", cfg.SettingsStore,
		"bot_runtime", cfg.BotRuntimeURL,
	)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	checkCtx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
	if err := runtime.Health(checkCtx); err != nil {
		logger.Warn("bot runtime not healthy yet", "error", err)
	}
	cancel()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func newStore(cfg *config.Config) (settings.Store, func(), error) {
	var (
		store   settings.Store
		cleanup []func() error
		err     error
	)
	switch cfg.SettingsStore {
	case config.StoreRedis:
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", perr)
		}
		client := redis.NewClient(opts)
		cleanup = append(cleanup, client.Close)
		store, err = settings.NewStore(settings.StoreTypeRedis,
			settings.WithRedisClient(client),
		)
	case config.StoreRemote:
		store, err = settings.NewStore(settings.StoreTypeRemote,
			settings.WithRemoteURL(cfg.SettingsURL),
			settings.WithHTTPClient(httpc.NewClient(cfg.ProviderTimeout)),
			settings.WithLogger(log.Component("settings")),
		)
	default:
		store, err = settings.NewStore(settings.StoreTypeMemory)
	}
	if err != nil {
		for _, fn := range cleanup {
			fn()
		}
		return nil, nil, err
	}

	closeAll := func() {
		store.Close()
		for _, fn := range cleanup {
			fn()
		}
	}
	return store, closeAll, nil
}
