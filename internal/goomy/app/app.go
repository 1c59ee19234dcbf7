// Package app wires Goomy together: topic configuration, the session
// registry, the turn audit store and the Matrix and HTTP transports.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bdobrica/goomy/common/spec/topics"
	"github.com/bdobrica/goomy/common/version"
	"github.com/bdobrica/goomy/internal/goomy/matrix"
	"github.com/bdobrica/goomy/internal/goomy/memory"
	"github.com/bdobrica/goomy/internal/goomy/random"
	"github.com/bdobrica/goomy/internal/goomy/session"
	"github.com/bdobrica/goomy/internal/goomy/store"
)

// Config holds the process configuration.
type Config struct {
	// TopicsFile is a topic document to load instead of the embedded default.
	TopicsFile string

	// DBPath enables the SQLite turn audit log and the persistent Matrix
	// sync position. Empty disables persistence.
	DBPath string

	// HTTPAddr enables the HTTP API. Empty disables it.
	HTTPAddr string

	// Matrix is enabled when Homeserver is set.
	Matrix MatrixConfig

	// IdleTTL is how long an unused session is kept. Default: 30m.
	IdleTTL time.Duration

	// Pacing enables the human-like delay before each reply.
	Pacing bool

	// Seed makes reply choices reproducible. Zero seeds from the clock.
	Seed uint64

	Memory memory.Config
}

// MatrixConfig holds the Matrix connection settings.
type MatrixConfig struct {
	Homeserver  string
	UserID      string
	AccessToken string
	Rooms       []string
}

// Enabled reports whether Matrix is configured.
func (m MatrixConfig) Enabled() bool { return m.Homeserver != "" }

// Validate checks that the configuration can be served.
func (c Config) Validate() error {
	if c.HTTPAddr == "" && !c.Matrix.Enabled() {
		return errors.New("app: nothing to serve: set an HTTP address or a Matrix homeserver")
	}
	if c.Matrix.Enabled() {
		if c.Matrix.UserID == "" || c.Matrix.AccessToken == "" {
			return errors.New("app: matrix: user ID and access token are required")
		}
		if len(c.Matrix.Rooms) == 0 {
			return errors.New("app: matrix: at least one room is required")
		}
	}
	return nil
}

// LoadTopics returns the topic document named by path, or the embedded
// default when path is empty.
func LoadTopics(path string) (*topics.Config, error) {
	if path == "" {
		return topics.Default()
	}
	return topics.Load(path)
}

// SessionOptions builds the session options shared by every transport.
func SessionOptions(cfg Config, tc *topics.Config, rec session.TurnRecorder, logger *slog.Logger) session.Options {
	opts := session.Options{
		Topics:   tc,
		Memory:   cfg.Memory,
		Random:   random.NewFromTime(),
		Sleep:    session.NoSleep,
		Recorder: rec,
		Logger:   logger,
	}
	if cfg.Seed != 0 {
		opts.Random = random.New(cfg.Seed)
	}
	if cfg.Pacing {
		opts.Sleep = session.Sleep
	}
	return opts
}

// App is a running Goomy service.
type App struct {
	cfg      Config
	logger   *slog.Logger
	store    *store.Store
	registry *session.Registry
	http     *HTTPServer
	matrix   *matrix.Client
}

// New loads configuration and builds every enabled subsystem. Nothing is
// started until Run.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tc, err := LoadTopics(cfg.TopicsFile)
	if err != nil {
		return nil, fmt.Errorf("app: load topics: %w", err)
	}

	a := &App{cfg: cfg, logger: logger}

	var (
		recorder session.TurnRecorder
		audit    turnLog
	)
	if cfg.DBPath != "" {
		st, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("app: open store: %w", err)
		}
		a.store = st
		recorder, audit = st, st
	}

	a.registry = session.NewRegistry(
		session.RegistryConfig{IdleTTL: cfg.IdleTTL},
		SessionOptions(cfg, tc, recorder, logger),
	)

	if cfg.HTTPAddr != "" {
		a.http = NewHTTPServer(cfg.HTTPAddr, a.registry, audit, logger)
	}

	if cfg.Matrix.Enabled() {
		mc := matrix.Config{
			Homeserver:  cfg.Matrix.Homeserver,
			UserID:      cfg.Matrix.UserID,
			AccessToken: cfg.Matrix.AccessToken,
			Rooms:       cfg.Matrix.Rooms,
		}
		if a.store != nil {
			mc.DB = a.store.DB()
		}
		client, err := matrix.New(mc, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.matrix = client
	}

	return a, nil
}

// Registry returns the session registry.
func (a *App) Registry() *session.Registry { return a.registry }

// Run starts every enabled subsystem and blocks until ctx is cancelled, a
// shutdown signal arrives or a subsystem fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.registry.RunSweeper(ctx) })

	if a.http != nil {
		g.Go(func() error { return a.http.Run(ctx) })
	}

	if a.matrix != nil {
		handler := NewMessageHandler(a.registry, a.matrix, a.logger)
		if err := a.matrix.Start(ctx, handler.Handle); err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("app: start matrix: %w", err)
		}
		g.Go(func() error {
			<-ctx.Done()
			a.matrix.Stop()
			return nil
		})
	}

	a.logger.Info("goomy started",
		"version", version.Version,
		"http", a.cfg.HTTPAddr,
		"matrix", a.cfg.Matrix.Enabled(),
		"audit", a.store != nil,
		"pacing", a.cfg.Pacing,
	)

	err := g.Wait()
	a.logger.Info("goomy stopped")
	return err
}

// Close releases the store. Call it after Run returns.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
