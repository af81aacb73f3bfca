// Package cli wires configuration, adapters and sessions for the marquee commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/internal/config"
	"github.com/aretw0/marquee/internal/logging"
	"github.com/aretw0/marquee/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/marquee/pkg/adapters/redis"
	"github.com/aretw0/marquee/pkg/observability"
	"github.com/aretw0/marquee/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every Redis key written by marquee.
const KeyPrefix = "marquee:"

// ErrNoDeck is returned by commands that need a deck when none was given.
var ErrNoDeck = errors.New("no deck: pass --deck with a deck file or directory")

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath string
	DeckPath   string
	LogLevel   string
	Topic      string
	Transport  string
	RedisAddr  string
	// LogWriter overrides stderr.
	LogWriter io.Writer
}

// App is a bootstrapped command context.
type App struct {
	Config config.Config
	Logger *slog.Logger
	// Engine is nil when no deck was requested.
	Engine *marquee.Engine
}

// Bootstrap loads configuration, builds the logger and opens the deck if one was given.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	path, required := opts.ConfigPath, true
	if path == "" {
		path, required = config.DefaultFile, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Topic != "" {
		cfg.Channel.Topic = opts.Topic
	}
	if opts.Transport != "" {
		cfg.Channel.Transport = opts.Transport
	}
	if opts.RedisAddr != "" {
		cfg.Channel.Redis.Addr = opts.RedisAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	logger := logging.NewWithWriter(w, level, format)

	app := &App{Config: cfg, Logger: logger}
	if opts.DeckPath == "" {
		return app, nil
	}

	app.Engine, err = marquee.New(ctx, opts.DeckPath,
		marquee.WithLogger(logger),
		marquee.WithDefaultDuration(cfg.Animation.DefaultDuration),
		marquee.WithLifecycleHooks(observability.LoggingHooks(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing marquee: %w", err)
	}
	return app, nil
}

// RequireDeck fails with ErrNoDeck when the app has no engine.
func (a *App) RequireDeck() error {
	if a.Engine == nil {
		return ErrNoDeck
	}
	return nil
}

// Infra holds the channel-side adapters selected by configuration.
type Infra struct {
	Transport ports.Transport
	// Locker is nil for the in-process transport: one process cannot race itself.
	Locker   ports.DistributedLocker
	Presence ports.PresenceStore
	// Shared reports whether other processes can reach the transport.
	Shared bool
	close  func() error
}

// Close releases the connections held by the adapters.
func (i *Infra) Close() error {
	if i.close == nil {
		return nil
	}
	return i.close()
}

// Connect builds the transport, lease and presence adapters.
func (a *App) Connect(ctx context.Context) (*Infra, error) {
	cfg := a.Config.Channel
	if cfg.Transport != config.TransportRedis {
		return &Infra{
			Transport: memory.NewHub(),
			Presence:  memory.NewPresence(),
		}, nil
	}

	client := backend.NewClient(&backend.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	a.Logger.Debug("connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

	return &Infra{
		Transport: redisAdapter.NewTransportFromClient(client),
		Locker:    redisAdapter.NewLocker(client, KeyPrefix),
		Presence:  redisAdapter.NewFromClient(client, redisAdapter.WithTTL(cfg.Redis.PresenceTTL)),
		Shared:    true,
		close:     client.Close,
	}, nil
}
