// Package retry retries transient failures of outbound calls, such as
// Matrix sends, with exponential back-off.
//
//	err := retry.Do(ctx, retry.Config{Op: "matrix send"}, func(ctx context.Context) error {
//	    return client.Send(ctx, msg)
//	})
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Config controls the retry behaviour.
type Config struct {
	// Op names the operation in log lines.
	Op string
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt. Each later wait
	// doubles, up to MaxDelay. Default: 500ms.
	InitialDelay time.Duration
	// MaxDelay caps a single wait. Default: 10s.
	MaxDelay time.Duration
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns it at once;
// errors.Is and errors.As still see err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a Permanent error, ctx is done or
// the attempts run out. The error of the last attempt is returned, joined
// with ctx.Err() when cancellation ended the loop.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(lastErr, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil || IsPermanent(lastErr) || attempt >= cfg.MaxAttempts {
			return lastErr
		}

		slog.Debug("retry: attempt failed",
			"op", cfg.Op, "attempt", attempt, "max", cfg.MaxAttempts,
			"err", lastErr, "delay", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-t.C:
		}

		delay = min(delay*2, cfg.MaxDelay)
	}
}
