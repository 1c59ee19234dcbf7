// Package observability provides structured logging helpers for Goomy.
//
// It wraps log/slog with trace ID propagation and secret redaction so that
// every log line emitted during a turn carries its trace and never the
// Matrix access token.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bdobrica/goomy/common/redact"
	"github.com/bdobrica/goomy/common/trace"
)

// Options configures the process logger.
type Options struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string
	// Format is text or json. Default: text.
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// Secrets are scrubbed from every string attribute.
	Secrets []string
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("observability: unknown log level %q", level)
	}
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	hopts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: redact.ReplaceAttr(opts.Secrets...)}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, hopts)
	case "", "text":
		handler = slog.NewTextHandler(out, hopts)
	default:
		return nil, fmt.Errorf("observability: unknown log format %q", opts.Format)
	}
	return slog.New(handler), nil
}

// Setup builds a logger from opts and installs it as the slog default.
func Setup(opts Options) (*slog.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// WithTrace returns base (or the default logger when base is nil) with the
// trace_id carried by ctx attached.
func WithTrace(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	traceID := trace.FromContext(ctx)
	if traceID == "" {
		return base
	}
	return base.With("trace_id", traceID)
}
