// Package session runs conversations: it owns one ConversationMemory per
// conversation and drives each turn through analysis, memory update, pacing
// and reply planning, allowing at most one turn in flight per session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/goomy/common/spec/topics"
	"github.com/bdobrica/goomy/common/trace"
	"github.com/bdobrica/goomy/internal/goomy/analysis"
	"github.com/bdobrica/goomy/internal/goomy/dialog"
	"github.com/bdobrica/goomy/internal/goomy/memory"
	"github.com/bdobrica/goomy/internal/goomy/planner"
	"github.com/bdobrica/goomy/internal/goomy/random"
)

var (
	// ErrEmptyInput is returned for messages that are blank after trimming.
	ErrEmptyInput = errors.New("session: empty input")
	// ErrBusy is returned while another turn of the same session is running.
	ErrBusy = errors.New("session: turn in flight")
	// ErrUnknownTopic is returned by QuickTopic for ids not in the topic config.
	ErrUnknownTopic = errors.New("session: unknown topic")
)

// TurnRecord is the audit view of a completed turn.
type TurnRecord struct {
	TurnID     string
	SessionID  string
	SessionKey string
	Message    string
	Reply      string
	Branch     string
	Topic      string
	Sentiment  dialog.Mood
	Complexity int
	Continuity dialog.Continuity
	Delay      time.Duration
	CreatedAt  time.Time
}

// TurnRecorder receives every completed turn.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
}

// Options configures sessions. The zero value is usable: it selects the
// embedded topic document, default memory capacities, a time-seeded random
// source and wall-clock pacing.
type Options struct {
	Topics *topics.Config
	Memory memory.Config
	Random random.Source

	// Sleep performs the pacing delay. Default: Sleep. Use NoSleep to
	// disable pacing.
	Sleep Sleeper

	// Recorder, when set, receives each completed turn. Failures are
	// logged and never fail the turn.
	Recorder TurnRecorder

	Logger *slog.Logger
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Topics == nil {
		o.Topics = topics.MustDefault()
	}
	if o.Random == nil {
		o.Random = random.NewFromTime()
	}
	if o.Sleep == nil {
		o.Sleep = Sleep
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Reply is the outcome of a turn.
type Reply struct {
	TurnID   string
	Text     string
	Branch   planner.Branch
	Analysis *dialog.Analysis
	Delay    time.Duration
}

// QuickReply is the outcome of a quick-topic selection.
type QuickReply struct {
	Topic       string   `json:"topic"`
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions"`
}

// Stats summarises a session's conversation.
type Stats struct {
	TotalMessages     int         `json:"totalMessages"`
	TopicsDiscussed   []string    `json:"topicsDiscussed"`
	Mood              dialog.Mood `json:"mood"`
	ConversationDepth int         `json:"conversationDepth"`
}

// Session is one conversation. It is safe for concurrent use; concurrent
// turns are rejected with ErrBusy rather than queued.
type Session struct {
	id       string
	key      string
	opts     Options
	analyzer *analysis.Analyzer
	planner  *planner.Planner
	memory   *memory.Memory

	inFlight   atomic.Bool
	lastActive atomic.Int64 // unix nanoseconds
}

// New creates a session for the conversation identified by key.
func New(key string, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		id:       uuid.NewString(),
		key:      key,
		opts:     opts,
		analyzer: analysis.New(opts.Topics),
		planner:  planner.New(opts.Topics, opts.Random, opts.Logger),
		memory:   memory.New(opts.Memory, opts.Topics, memory.WithClock(opts.Now)),
	}
	s.touch()
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Key returns the conversation key the session was created for.
func (s *Session) Key() string { return s.key }

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool { return s.inFlight.Load() }

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(s.opts.Now().UnixNano())
}

// acquire takes the turn guard. The caller must call release exactly once
// when acquire returns true.
func (s *Session) acquire() bool { return s.inFlight.CompareAndSwap(false, true) }
func (s *Session) release()      { s.inFlight.Store(false) }

// Turn answers one user message.
//
// Blank input is rejected with ErrEmptyInput before the guard is touched.
// While another turn runs, ErrBusy is returned. Otherwise the message is
// analysed against the pre-turn memory, recorded, paced and answered. A
// cancelled ctx cuts the pacing delay short but the reply is still planned.
func (s *Session) Turn(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyInput
	}

	ctx, turnID := trace.Ensure(ctx)
	logger := s.opts.Logger.With("session", s.key, "trace_id", turnID)

	if !s.acquire() {
		logger.Debug("turn rejected: another turn is in flight")
		return Reply{}, ErrBusy
	}
	defer s.release()
	s.touch()

	a := s.analyzer.Analyze(turnID, text, s.memory)
	top, _ := a.TopTopic()
	logger.Debug("message analysed",
		"topic", top,
		"sentiment", a.Sentiment.Label,
		"complexity", a.Complexity,
		"questions", len(a.Questions),
		"continuity", a.Context.Continuity,
	)

	s.memory.Record(text, a)

	delay := EstimateDelay(a, s.opts.Random)
	if err := s.opts.Sleep(ctx, delay); err != nil {
		logger.Debug("pacing delay interrupted", "err", err)
	}

	d := s.planner.Decide(a, s.memory.Snapshot())
	reply := Reply{
		TurnID:   turnID,
		Text:     d.Text,
		Branch:   d.Branch,
		Analysis: a,
		Delay:    delay,
	}
	logger.Info("turn answered", "branch", d.Branch, "delay_ms", delay.Milliseconds())

	s.audit(context.WithoutCancel(ctx), logger, text, reply)
	return reply, nil
}

func (s *Session) audit(ctx context.Context, logger *slog.Logger, message string, r Reply) {
	if s.opts.Recorder == nil {
		return
	}
	top, _ := r.Analysis.TopTopic()
	rec := TurnRecord{
		TurnID:     r.TurnID,
		SessionID:  s.id,
		SessionKey: s.key,
		Message:    message,
		Reply:      r.Text,
		Branch:     string(r.Branch),
		Topic:      top,
		Sentiment:  r.Analysis.Sentiment.Label,
		Complexity: r.Analysis.Complexity,
		Continuity: r.Analysis.Context.Continuity,
		Delay:      r.Delay,
		CreatedAt:  s.opts.Now(),
	}
	if err := s.opts.Recorder.RecordTurn(ctx, rec); err != nil {
		logger.Warn("failed to record turn", "err", err)
	}
}

// QuickTopic handles a topic picked directly by the user: the topic joins
// the conversation history and a canned reply is returned together with the
// topic's suggestions.
func (s *Session) QuickTopic(ctx context.Context, topicID string) (QuickReply, error) {
	if !s.acquire() {
		return QuickReply{}, ErrBusy
	}
	defer s.release()
	s.touch()

	t, ok := s.opts.Topics.Topic(topicID)
	if !ok {
		return QuickReply{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topicID)
	}

	s.memory.PushTopic(t.ID)
	text, _ := s.planner.QuickTopic(t.ID)

	s.opts.Logger.Info("quick topic answered",
		"session", s.key,
		"trace_id", trace.FromContext(ctx),
		"topic", t.ID,
	)
	return QuickReply{
		Topic:       t.ID,
		Reply:       text,
		Suggestions: append([]string{}, t.Suggestions...),
	}, nil
}

// Stats summarises the conversation so far.
func (s *Session) Stats() Stats {
	snap := s.memory.Snapshot()
	return Stats{
		TotalMessages:     len(snap.Entries),
		TopicsDiscussed:   snap.Discussed(s.opts.Topics.IDs()),
		Mood:              snap.Mood,
		ConversationDepth: len(snap.History),
	}
}

// Snapshot returns a copy of the session's memory.
func (s *Session) Snapshot() memory.Snapshot {
	return s.memory.Snapshot()
}
