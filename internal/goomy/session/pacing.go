package session

import (
	"context"
	"time"

	"github.com/bdobrica/goomy/internal/goomy/dialog"
	"github.com/bdobrica/goomy/internal/goomy/random"
)

// Pacing parameters, in milliseconds.
const (
	pacingBaseMS      = 800
	pacingPerLevelMS  = 300
	pacingQuestionMS  = 500
	pacingShiftMS     = 300
	pacingJitterRange = 1000
)

// MaxDelay caps the pacing delay.
const MaxDelay = 3000 * time.Millisecond

// EstimateDelay returns how long Goomy "thinks" before answering a. Longer
// for complex messages, questions and topic shifts, plus random jitter,
// capped at MaxDelay.
func EstimateDelay(a *dialog.Analysis, rnd random.Source) time.Duration {
	ms := pacingBaseMS + pacingPerLevelMS*a.Complexity
	if len(a.Questions) > 0 {
		ms += pacingQuestionMS
	}
	if a.Context.Continuity == dialog.ContinuityShift {
		ms += pacingShiftMS
	}
	ms += rnd.Intn(pacingJitterRange)

	d := time.Duration(ms) * time.Millisecond
	if d > MaxDelay {
		d = MaxDelay
	}
	return d
}

// Sleeper waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoSleep is a Sleeper that returns immediately, for disabled pacing.
func NoSleep(context.Context, time.Duration) error { return nil }
