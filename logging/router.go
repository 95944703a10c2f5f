package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

const (
	defaultQueueSize = 512
	maxSinkBackoff   = 30 * time.Second
)

// Router queues published events on one dispatcher and hands each event to a
// lane per sink, so neither a slow sink nor a burst of events blocks a game
// loop. Publish never blocks; overflow is counted and reported.
type Router struct {
	clock     Clock
	fallback  *log.Logger
	minimum   Severity
	fields    map[string]any
	warnEvery time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	lanes  []*lane
	done   chan struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
	lastWarn  atomic.Int64
}

// RouterStats is reported on /diagnostics.
type RouterStats struct {
	EventsTotal  uint64      `json:"eventsTotal"`
	DroppedTotal uint64      `json:"droppedTotal"`
	Sinks        []SinkStats `json:"sinks,omitempty"`
}

// SinkStats counts what happened to the events handed to one sink.
type SinkStats struct {
	Name    string `json:"name"`
	Written uint64 `json:"written"`
	Failed  uint64 `json:"failed"`
	Skipped uint64 `json:"skipped"`
}

// NewRouter starts the dispatcher and one lane per sink.
func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink, fallback *log.Logger) *Router {
	if clock == nil {
		clock = SystemClock{}
	}
	if fallback == nil {
		fallback = log.New(os.Stderr, "[logging] ", log.LstdFlags)
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultQueueSize
	}
	warnEvery := cfg.DropWarnInterval
	if warnEvery <= 0 {
		warnEvery = 5 * time.Second
	}

	r := &Router{
		clock:     clock,
		fallback:  fallback,
		minimum:   cfg.MinimumSeverity,
		fields:    cfg.CloneFields(),
		warnEvery: warnEvery,
		queue:     make(chan Event, size),
		done:      make(chan struct{}),
	}
	for _, named := range namedSinks {
		if named.Sink != nil {
			r.lanes = append(r.lanes, newLane(named, size, clock, fallback))
		}
	}
	go r.dispatch()
	return r
}

func (r *Router) dispatch() {
	var lanes sync.WaitGroup
	for _, l := range r.lanes {
		lanes.Add(1)
		go func(l *lane) {
			defer lanes.Done()
			l.run()
		}(l)
	}

	for event := range r.queue {
		if event.Severity < r.minimum {
			continue
		}
		if event.Time.IsZero() {
			event.Time = r.clock.Now()
		}
		event = stampFields(event, r.fields)
		r.published.Add(1)
		for _, l := range r.lanes {
			l.offer(event)
		}
	}

	for _, l := range r.lanes {
		close(l.events)
	}
	lanes.Wait()
	close(r.done)
}

// Publish queues event. Untyped events and events published after Close are
// ignored.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		r.warnDrop(event)
	}
}

func (r *Router) warnDrop(event Event) {
	now := r.clock.Now().UnixNano()
	last := r.lastWarn.Load()
	if last != 0 && now-last < r.warnEvery.Nanoseconds() {
		return
	}
	if r.lastWarn.CompareAndSwap(last, now) {
		r.fallback.Printf("queue full, dropping %s (%d dropped so far)", event.Type, r.dropped.Load())
	}
}

// Close stops accepting events, waits for queued ones to reach every sink and
// then closes the sinks. It returns ctx.Err() if the lanes do not finish in
// time.
func (r *Router) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var firstErr error
	for _, l := range r.lanes {
		if err := l.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.published.Load(),
		DroppedTotal: r.dropped.Load(),
	}
	for _, l := range r.lanes {
		stats.Sinks = append(stats.Sinks, l.stats())
		stats.DroppedTotal += l.skipped.Load()
	}
	return stats
}

// lane feeds one sink. After a failed write the lane backs off exponentially
// and skips events until the backoff has elapsed.
type lane struct {
	name     string
	sink     Sink
	events   chan Event
	clock    Clock
	fallback *log.Logger

	failures int
	resumeAt time.Time
	written  atomic.Uint64
	failed   atomic.Uint64
	skipped  atomic.Uint64
}

func newLane(named NamedSink, size int, clock Clock, fallback *log.Logger) *lane {
	return &lane{
		name:     named.Name,
		sink:     named.Sink,
		events:   make(chan Event, size),
		clock:    clock,
		fallback: fallback,
	}
}

func (l *lane) offer(event Event) {
	select {
	case l.events <- cloneEvent(event):
	default:
		l.skipped.Add(1)
	}
}

func (l *lane) run() {
	for event := range l.events {
		if l.failures > 0 && l.clock.Now().Before(l.resumeAt) {
			l.skipped.Add(1)
			continue
		}
		if err := l.sink.Write(event); err != nil {
			l.failed.Add(1)
			l.failures++
			backoff := min(time.Second<<min(l.failures-1, 5), maxSinkBackoff)
			l.resumeAt = l.clock.Now().Add(backoff)
			l.fallback.Printf("sink %s: %v (pausing %s)", l.name, err, backoff)
			continue
		}
		l.failures = 0
		l.written.Add(1)
	}
}

func (l *lane) stats() SinkStats {
	return SinkStats{
		Name:    l.name,
		Written: l.written.Load(),
		Failed:  l.failed.Load(),
		Skipped: l.skipped.Load(),
	}
}
