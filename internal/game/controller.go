package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultInboxSize = 32

// TickerFunc starts a periodic timer and returns its channel plus a stop
// function. Tests inject a manual ticker.
type TickerFunc func(interval time.Duration) (<-chan time.Time, func())

// SystemTicker wraps time.NewTicker.
func SystemTicker(interval time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}

// Observer receives notices after each reduced event. The controller never
// depends on it for correctness.
type Observer interface {
	Notice(Notice)
}

// ObserverFunc adapts functions into the Observer interface.
type ObserverFunc func(Notice)

// Notice implements Observer for ObserverFunc.
func (f ObserverFunc) Notice(n Notice) {
	if f == nil {
		return
	}
	f(n)
}

// ControllerConfig wires a controller's collaborators.
type ControllerConfig struct {
	Game      Config
	Source    Source
	Ticker    TickerFunc
	Observer  Observer
	InboxSize int
}

// Controller owns one session's state and serializes keyboard input and
// adversary ticks onto the goroutine running Run.
type Controller struct {
	cfg      Config
	rng      Source
	ticker   TickerFunc
	observer Observer

	inbox   chan Event
	updates chan State
	done    chan struct{}
	running atomic.Bool

	mu    sync.RWMutex
	state State
}

// NewController seeds a fresh board. Run must be called to start the timer.
func NewController(cfg ControllerConfig) *Controller {
	gameCfg := cfg.Game.Normalized()
	rng := cfg.Source
	if rng == nil {
		rng = NewSource(gameCfg.Seed)
	}
	ticker := cfg.Ticker
	if ticker == nil {
		ticker = SystemTicker
	}
	inboxSize := cfg.InboxSize
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}
	return &Controller{
		cfg:      gameCfg,
		rng:      rng,
		ticker:   ticker,
		observer: cfg.Observer,
		inbox:    make(chan Event, inboxSize),
		updates:  make(chan State, 1),
		done:     make(chan struct{}),
		state:    NewState(gameCfg, rng),
	}
}

// Config returns the normalized game config.
func (c *Controller) Config() Config {
	return c.cfg
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// Updates delivers the latest state after every change. Slow readers only
// see the newest snapshot.
func (c *Controller) Updates() <-chan State {
	return c.updates
}

// Done closes once Run has returned and the timer is released.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Move queues a directional input. It reports false when the input was
// absorbed: the game is over, or the inbox is saturated.
func (c *Controller) Move(dir Direction) bool {
	dx, dy := dir.Delta()
	if dx == 0 && dy == 0 {
		return false
	}
	return c.enqueue(MoveEvent(dir))
}

// HandleKey maps a key name to a move. Unmapped keys are ignored.
func (c *Controller) HandleKey(key string) bool {
	dir, ok := DirectionForKey(key)
	if !ok {
		return false
	}
	return c.Move(dir)
}

func (c *Controller) enqueue(ev Event) bool {
	c.mu.RLock()
	over := c.state.GameOver
	c.mu.RUnlock()
	if over {
		return false
	}
	select {
	case c.inbox <- ev:
		return true
	default:
		return false
	}
}

// Run drives the session until ctx is cancelled. The adversary timer stops as
// soon as the game is over; input keeps being drained and absorbed until the
// session ends. Run may only be called once.
func (c *Controller) Run(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	defer close(c.done)

	c.publish(c.Snapshot())

	var ticks <-chan time.Time
	stopTicker := func() {}
	if !c.Snapshot().GameOver {
		ticks, stopTicker = c.ticker(c.cfg.TickInterval)
	}
	defer func() { stopTicker() }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.inbox:
			c.step(ev)
		case <-ticks:
			c.step(TickEvent())
		}

		if ticks != nil && c.Snapshot().GameOver {
			stopTicker()
			stopTicker = func() {}
			ticks = nil
		}
	}
}

func (c *Controller) step(ev Event) {
	c.mu.Lock()
	next, notices := Apply(c.state, ev, c.rng)
	changed := !sameState(c.state, next)
	c.state = next
	snapshot := next.Clone()
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, notice := range notices {
		if c.observer != nil {
			c.observer.Notice(notice)
		}
	}
	c.publish(snapshot)
}

func (c *Controller) publish(s State) {
	for {
		select {
		case c.updates <- s:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// sameState is a cheap change check: Apply returns its input untouched when
// an event is absorbed.
func sameState(a, b State) bool {
	return a.Tick == b.Tick &&
		a.Player == b.Player &&
		a.Score == b.Score &&
		a.GameOver == b.GameOver &&
		a.Collectibles.set == b.Collectibles.set
}
