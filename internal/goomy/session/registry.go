package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bdobrica/goomy/common/spec/topics"
)

// RegistryConfig holds registry settings.
type RegistryConfig struct {
	// IdleTTL is how long a session may go unused before Sweep drops it.
	// Default: 30 minutes.
	IdleTTL time.Duration

	// SweepSchedule is the cron spec of the background sweeper.
	// Default: "@every 1m".
	SweepSchedule string
}

// DefaultRegistryConfig returns a RegistryConfig with the documented defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		IdleTTL:       30 * time.Minute,
		SweepSchedule: "@every 1m",
	}
}

// Registry maps conversation keys to sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	config   RegistryConfig
	opts     Options
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. Every session it creates shares
// opts.
func NewRegistry(cfg RegistryConfig, opts Options) *Registry {
	def := DefaultRegistryConfig()
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = def.SweepSchedule
	}
	return &Registry{
		config:   cfg,
		opts:     opts.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Topics returns the topic configuration shared by the registry's sessions.
func (r *Registry) Topics() *topics.Config {
	return r.opts.Topics
}

// Key builds the conversation key for a sender in a room.
func Key(roomID, senderID string) string {
	return roomID + ":" + senderID
}

// Get returns the session for key, creating it on first use.
func (r *Registry) Get(key string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		s = New(key, r.opts)
		r.sessions[key] = s
		r.opts.Logger.Debug("session created", "session", key, "session_id", s.ID())
		return s
	}
	s.touch()
	return s
}

// Lookup returns the session for key without creating or touching it.
func (r *Registry) Lookup(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than IdleTTL relative to now and
// returns how many were dropped. Sessions with a turn in flight are kept.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for key, s := range r.sessions {
		if s.Busy() {
			continue
		}
		if now.Sub(s.LastActive()) > r.config.IdleTTL {
			delete(r.sessions, key)
			dropped++
		}
	}
	return dropped
}

// RunSweeper sweeps idle sessions on the configured schedule until ctx is
// cancelled.
func (r *Registry) RunSweeper(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.config.SweepSchedule, func() {
		if n := r.Sweep(r.opts.Now()); n > 0 {
			r.opts.Logger.Info("idle sessions swept", "dropped", n, "remaining", r.Len())
		}
	}); err != nil {
		return fmt.Errorf("session: sweeper schedule %q: %w", r.config.SweepSchedule, err)
	}

	c.Start()
	r.opts.Logger.Info("session sweeper started",
		slog.String("schedule", r.config.SweepSchedule),
		slog.Duration("idle_ttl", r.config.IdleTTL),
	)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
