package sinks

import (
	"context"
	"sync"

	"pixel-pursuit/server/logging"
)

// DefaultMemoryCapacity is the number of events kept for /diagnostics.
const DefaultMemoryCapacity = 64

// Memory keeps the most recent events in a ring. The server uses it to expose
// recent activity on /diagnostics.
type Memory struct {
	mu       sync.RWMutex
	events   []logging.Event
	next     int
	full     bool
	capacity int
}

// NewMemory keeps up to capacity events. Non-positive values fall back to
// DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{events: make([]logging.Event, capacity), capacity: capacity}
}

func (s *Memory) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[s.next] = cloneForMemory(event)
	s.next = (s.next + 1) % s.capacity
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Events returns the retained events, oldest first.
func (s *Memory) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.full {
		copied := make([]logging.Event, s.next)
		copy(copied, s.events[:s.next])
		return copied
	}
	copied := make([]logging.Event, 0, s.capacity)
	copied = append(copied, s.events[s.next:]...)
	return append(copied, s.events[:s.next]...)
}

func (s *Memory) Close(context.Context) error {
	return nil
}

func cloneForMemory(event logging.Event) logging.Event {
	cloned := event
	if len(event.Targets) > 0 {
		cloned.Targets = append([]logging.EntityRef(nil), event.Targets...)
	}
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}
