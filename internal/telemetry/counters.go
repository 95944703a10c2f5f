package telemetry

import (
	"sort"
	"sync"
)

// Counter keys recorded by the session registry and transport.
const (
	KeySessionsStarted  = "sessions_started_total"
	KeySessionsEnded    = "sessions_ended_total"
	KeySessionsActive   = "sessions_active"
	KeySessionsRejected = "sessions_rejected_total"
	KeyDotsCollected    = "dots_collected_total"
	KeyGameOvers        = "game_overs_total"
	KeyBroadcastBytes   = "broadcast_bytes_total"
	KeyBroadcasts       = "broadcasts_total"
	KeyWebhookEvents    = "webhook_events_total"
	KeyWebhookRejected  = "webhook_rejected_total"
)

// Counters is an in-memory Metrics implementation surfaced on /diagnostics.
type Counters struct {
	mu     sync.Mutex
	values map[string]uint64
}

// NewCounters constructs an empty counter set.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

// Add increments key by delta.
func (c *Counters) Add(key string, delta uint64) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	c.values[key] += delta
	c.mu.Unlock()
}

// Store overwrites key with value.
func (c *Counters) Store(key string, value uint64) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// Load reads a single counter.
func (c *Counters) Load(key string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key]
}

// Snapshot copies every counter.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return map[string]uint64{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Keys lists recorded counter names in order.
func (c *Counters) Keys() []string {
	snapshot := c.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
