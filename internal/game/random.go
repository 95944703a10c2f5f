package game

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// Source supplies uniform draws in [0, 1). Both dot seeding and adversary
// movement read from it, so a fixed sequence makes a session reproducible.
type Source interface {
	Float64() float64
}

// NewSource returns a pseudo-random source. A zero seed draws one from the clock.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

// SequenceSource replays a fixed list of draws, wrapping around at the end.
type SequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequenceSource builds a source that cycles through values. An empty list
// always yields zero.
func NewSequenceSource(values ...float64) *SequenceSource {
	copied := append([]float64(nil), values...)
	return &SequenceSource{values: copied}
}

// Float64 implements Source.
func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
