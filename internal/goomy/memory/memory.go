// Package memory implements Goomy's bounded conversational memory: the
// rolling log of analysed user messages, the context history of dominant
// topics, per-topic frequency counters, the current mood and the per-topic
// technical context caches.
//
// All sequences are FIFO windows: once a window is full the oldest item is
// evicted on insertion. Memory lives for the lifetime of its session and is
// never persisted.
package memory

import (
	"sync"
	"time"

	"github.com/bdobrica/goomy/common/spec/topics"
	"github.com/bdobrica/goomy/internal/goomy/dialog"
)

// Config holds the capacities of the bounded sequences.
type Config struct {
	// MaxEntries bounds the message log. Default: 30.
	MaxEntries int

	// MaxHistory bounds the context history of topics. Default: 15.
	MaxHistory int

	// MaxTechnical bounds each topic's technical context cache. Default: 10.
	MaxTechnical int
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries:   30,
		MaxHistory:   15,
		MaxTechnical: 10,
	}
}

// Entry is one recorded user message.
type Entry struct {
	Message   string
	Analysis  dialog.Analysis
	Timestamp time.Time
	// TechnicalDetails maps topic id → technical keywords found in Message.
	// Topics without hits are absent.
	TechnicalDetails map[string][]string
}

// TechnicalNote is an item of a topic's technical context cache.
type TechnicalNote struct {
	Message    string
	Keywords   []string
	Complexity int
	Timestamp  time.Time
}

// Memory is the conversation state of one session. It is safe for
// concurrent use, although a session only mutates it from its active turn.
type Memory struct {
	mu        sync.RWMutex
	config    Config
	topics    *topics.Config
	now       func() time.Time
	entries   []Entry
	history   []string
	frequency map[string]int
	mood      dialog.Mood
	technical map[string][]TechnicalNote
}

// Option customises a Memory.
type Option func(*Memory)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// New creates an empty Memory for the topics in cfg. Non-positive
// capacities fall back to DefaultConfig.
func New(cfg Config, tc *topics.Config, opts ...Option) *Memory {
	def := DefaultConfig()
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.MaxTechnical <= 0 {
		cfg.MaxTechnical = def.MaxTechnical
	}

	m := &Memory{
		config:    cfg,
		topics:    tc,
		now:       time.Now,
		frequency: make(map[string]int, len(tc.Topics)),
		mood:      dialog.MoodNeutral,
		technical: make(map[string][]TechnicalNote),
	}
	for _, t := range tc.Topics {
		m.frequency[t.ID] = 0
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record stores the message and its analysis.
//
// It appends an Entry, and when the analysis has topics it pushes the top
// topic onto the context history, bumps its frequency and adds a note to
// its technical cache. The mood always follows the analysis. Windows are
// then trimmed in order: entries, history, technical cache.
func (m *Memory) Record(text string, a *dialog.Analysis) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries = append(m.entries, Entry{
		Message:          text,
		Analysis:         a.Clone(),
		Timestamp:        now,
		TechnicalDetails: m.technicalDetails(dialog.Fold(text)),
	})

	top, hasTopic := a.TopTopic()
	if hasTopic {
		m.pushTopic(top)
		m.technical[top] = append(m.technical[top], TechnicalNote{
			Message:    text,
			Keywords:   append([]string(nil), a.Keywords...),
			Complexity: a.Complexity,
			Timestamp:  now,
		})
	}

	m.mood = a.Sentiment.Label

	m.entries = trimFront(m.entries, m.config.MaxEntries)
	m.history = trimFront(m.history, m.config.MaxHistory)
	if hasTopic {
		m.technical[top] = trimFront(m.technical[top], m.config.MaxTechnical)
	}
}

// PushTopic records topic id as discussed without a message: it joins the
// context history and its frequency grows by one. Unknown ids are ignored
// and reported as false.
func (m *Memory) PushTopic(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.frequency[id]; !ok {
		return false
	}
	m.pushTopic(id)
	m.history = trimFront(m.history, m.config.MaxHistory)
	return true
}

// pushTopic must be called with mu held.
func (m *Memory) pushTopic(id string) {
	m.history = append(m.history, id)
	if _, ok := m.frequency[id]; ok {
		m.frequency[id]++
	}
}

// technicalDetails collects, per topic, the technical keywords present in
// folded text.
func (m *Memory) technicalDetails(folded string) map[string][]string {
	details := make(map[string][]string)
	for _, t := range m.topics.Topics {
		if found := dialog.Present(folded, t.TechnicalKeywords); len(found) > 0 {
			details[t.ID] = found
		}
	}
	return details
}

// RecentTopics implements analysis.History.
func (m *Memory) RecentTopics(n int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lastN(m.history, n)
}

// Mood implements analysis.History.
func (m *Memory) Mood() dialog.Mood {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mood
}

// Depth implements analysis.History.
func (m *Memory) Depth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// trimFront drops the oldest items so that at most max remain. The result
// does not share its backing array with evicted items.
func trimFront[T any](s []T, max int) []T {
	if len(s) <= max {
		return s
	}
	out := make([]T, max)
	copy(out, s[len(s)-max:])
	return out
}

// lastN returns a copy of the last n items of s, oldest first.
func lastN[T any](s []T, n int) []T {
	if n > len(s) {
		n = len(s)
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	copy(out, s[len(s)-n:])
	return out
}
