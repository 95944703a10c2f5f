package game

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	ch       chan time.Time
	started  atomic.Int32
	stopped  atomic.Int32
	interval atomic.Int64
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) start(interval time.Duration) (<-chan time.Time, func()) {
	m.started.Add(1)
	m.interval.Store(int64(interval))
	return m.ch, func() { m.stopped.Add(1) }
}

func (m *manualTicker) fire(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatalf("tick was not consumed")
	}
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notice(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) kinds() []NoticeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]NoticeKind, 0, len(r.notices))
	for _, n := range r.notices {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func waitForState(t *testing.T, c *Controller, match func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-c.Updates():
			if match(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state, last snapshot %+v", c.Snapshot())
		}
	}
}

func startController(t *testing.T, cfg ControllerConfig) (*Controller, context.CancelFunc) {
	t.Helper()
	c := NewController(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-c.Done()
	})
	waitForState(t, c, func(State) bool { return true })
	return c, cancel
}

func TestControllerInitialState(t *testing.T) {
	c := NewController(ControllerConfig{Source: NewSequenceSource(0.9)})
	s := c.Snapshot()

	require.Equal(t, PhaseRunning, s.Phase())
	require.Equal(t, Position{X: 7, Y: 7}, s.Player)
	require.Len(t, s.Adversaries, 4)
	require.Equal(t, 225, s.Collectibles.Len())
	require.Equal(t, 0, s.Score)
}

func TestControllerKeyboardMovesAndCollects(t *testing.T) {
	ticker := newManualTicker()
	c, _ := startController(t, ControllerConfig{Source: NewSequenceSource(0.9), Ticker: ticker.start})

	for i := 0; i < 3; i++ {
		require.True(t, c.HandleKey(KeyArrowRight))
	}
	s := waitForState(t, c, func(s State) bool { return s.Player == Position{X: 10, Y: 7} })

	require.Equal(t, 30, s.Score)
	require.False(t, s.Collectibles.Has(Position{X: 8, Y: 7}))
	require.False(t, s.Collectibles.Has(Position{X: 9, Y: 7}))
	require.False(t, s.Collectibles.Has(Position{X: 10, Y: 7}))
	require.Equal(t, int64(DefaultTickInterval), ticker.interval.Load())
}

func TestControllerIgnoresUnmappedKeys(t *testing.T) {
	ticker := newManualTicker()
	c, _ := startController(t, ControllerConfig{Source: NewSequenceSource(0.9), Ticker: ticker.start})

	require.False(t, c.HandleKey("Enter"))
	require.False(t, c.HandleKey("a"))
	require.Equal(t, Position{X: 7, Y: 7}, c.Snapshot().Player)
}

func TestControllerTickMovesAdversaries(t *testing.T) {
	ticker := newManualTicker()
	// seeding draws 225 values of 0.9 then ticks keep drawing 0.9: every ghost steps +1,+1
	c, _ := startController(t, ControllerConfig{Source: NewSequenceSource(0.9), Ticker: ticker.start})

	ticker.fire(t)
	s := waitForState(t, c, func(s State) bool { return s.Tick == 1 })

	require.Equal(t, Position{X: 3, Y: 3}, s.Adversaries[0].Position)
	require.Equal(t, Position{X: 13, Y: 13}, s.Adversaries[3].Position)
}

func TestControllerGameOverStopsTimerAndInput(t *testing.T) {
	ticker := newManualTicker()
	recorder := &noticeRecorder{}
	c, _ := startController(t, ControllerConfig{
		Source:   NewSequenceSource(0.9),
		Ticker:   ticker.start,
		Observer: recorder,
	})

	// ghost 0 walks +1,+1 per tick from (2,2); walk the player to meet it at (4,4)
	for _, key := range []string{KeyArrowUp, KeyArrowUp, KeyArrowUp, KeyArrowLeft, KeyArrowLeft, KeyArrowLeft} {
		require.True(t, c.HandleKey(key))
	}
	waitForState(t, c, func(s State) bool { return s.Player == Position{X: 4, Y: 4} })

	ticker.fire(t)
	waitForState(t, c, func(s State) bool { return s.Tick == 1 })
	ticker.fire(t)
	s := waitForState(t, c, func(s State) bool { return s.GameOver })

	require.Equal(t, Position{X: 4, Y: 4}, s.Adversaries[0].Position)
	require.Eventually(t, func() bool { return ticker.stopped.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Contains(t, recorder.kinds(), NoticeGameOver)

	frozen := c.Snapshot()
	require.False(t, c.HandleKey(KeyArrowDown))
	require.False(t, c.Move(DirectionRight))
	require.Equal(t, frozen.Player, c.Snapshot().Player)
	require.Equal(t, frozen.Adversaries, c.Snapshot().Adversaries)

	// the ticker channel is no longer read once terminal
	select {
	case ticker.ch <- time.Now():
		t.Fatalf("controller consumed a tick after game over")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerCancelReleasesTimer(t *testing.T) {
	ticker := newManualTicker()
	c := NewController(ControllerConfig{Source: NewSequenceSource(0.9), Ticker: ticker.start})
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	require.Eventually(t, func() bool { return ticker.started.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatalf("controller did not stop after cancel")
	}
	require.Equal(t, int32(1), ticker.stopped.Load())
}

func TestControllerRunOnlyOnce(t *testing.T) {
	ticker := newManualTicker()
	c, _ := startController(t, ControllerConfig{Source: NewSequenceSource(0.9), Ticker: ticker.start})

	// a second Run returns immediately without starting another timer
	c.Run(context.Background())
	require.Equal(t, int32(1), ticker.started.Load())
}

func TestControllerSnapshotIsolation(t *testing.T) {
	c := NewController(ControllerConfig{Source: NewSequenceSource(0.9)})
	s := c.Snapshot()
	s.Adversaries[0].Position = Position{X: 0, Y: 0}
	require.Equal(t, Position{X: 2, Y: 2}, c.Snapshot().Adversaries[0].Position)
}
