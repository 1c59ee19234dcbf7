// Package random provides the pluggable randomness used for reply variety
// and pacing jitter.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source yields uniformly distributed integers. Implementations used by
// more than one goroutine must be safe for concurrent use.
type Source interface {
	// Intn returns a value in [0, n). n must be > 0.
	Intn(n int) int
}

// Seeded is a Source backed by a PCG generator. It is safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Seeded source. The same seed always yields the same sequence.
func New(seed uint64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewFromTime returns a Seeded source seeded from the wall clock.
func NewFromTime() *Seeded {
	return New(uint64(time.Now().UnixNano()))
}

// Intn implements Source.
func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Pick returns a uniformly chosen element of pool, or "" when pool is empty.
func Pick(src Source, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[src.Intn(len(pool))]
}

// Sequence is a deterministic Source that replays fixed values, wrapping
// around when exhausted. Values are reduced modulo n. Intended for tests.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequence returns a Sequence replaying values. With no values it always
// returns 0.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

// Intn implements Source.
func (s *Sequence) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}

var (
	_ Source = (*Seeded)(nil)
	_ Source = (*Sequence)(nil)
)
