package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/game"
	"pixel-pursuit/server/internal/telemetry"
	"pixel-pursuit/server/logging"
	gameplaylog "pixel-pursuit/server/logging/gameplay"
	lifecyclelog "pixel-pursuit/server/logging/lifecycle"
)

// DefaultMaxSessions bounds concurrent games when no limit is configured.
const DefaultMaxSessions = 256

// Reasons recorded when a session ends.
const (
	ReasonDisconnected = "disconnected"
	ReasonShutdown     = "shutdown"
	ReasonCancelled    = "cancelled"
	ReasonQuit         = "quit"
)

// ErrCapacity is returned by Start when MaxSessions games are running.
var ErrCapacity = errors.New("session capacity reached")

// Config controls how sessions are created.
type Config struct {
	Game        game.Config
	MaxSessions int
	// Ticker and NewSource are overridden by tests.
	Ticker    game.TickerFunc
	NewSource func() game.Source
	Now       func() time.Time
}

// Session is one running game bound to a connection or terminal.
type Session struct {
	ID        string
	StartedAt time.Time

	controller *game.Controller
	cancel     context.CancelFunc
	insets     atomic.Pointer[frame.SafeAreaInsets]
	ended      sync.Once
}

// Controller exposes the session's game loop.
func (s *Session) Controller() *game.Controller {
	return s.controller
}

// HandleKey forwards a key press to the game loop.
func (s *Session) HandleKey(key string) bool {
	return s.controller.HandleKey(key)
}

// Snapshot returns the current board.
func (s *Session) Snapshot() game.State {
	return s.controller.Snapshot()
}

// Updates streams board snapshots.
func (s *Session) Updates() <-chan game.State {
	return s.controller.Updates()
}

// Done closes once the game loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.controller.Done()
}

// SetInsets records the host safe area for the client layout.
func (s *Session) SetInsets(insets frame.SafeAreaInsets) {
	clamped := insets.Clamped()
	s.insets.Store(&clamped)
}

// Insets returns the last reported safe area, or nil.
func (s *Session) Insets() *frame.SafeAreaInsets {
	return s.insets.Load()
}

// Info is a diagnostics row.
type Info struct {
	ID        string    `json:"id"`
	Score     int       `json:"score"`
	Tick      uint64    `json:"tick"`
	GameOver  bool      `json:"gameOver"`
	StartedAt time.Time `json:"startedAt"`
}

// Registry tracks live sessions.
type Registry struct {
	cfg       Config
	publisher logging.Publisher
	metrics   telemetry.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg Config, publisher logging.Publisher, metrics telemetry.Metrics) *Registry {
	cfg.Game = cfg.Game.Normalized()
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	return &Registry{
		cfg:       cfg,
		publisher: publisher,
		metrics:   metrics,
		sessions:  make(map[string]*Session),
	}
}

// Start creates a fresh game and launches its loop. The session ends when ctx
// is cancelled or End is called.
func (r *Registry) Start(ctx context.Context) (*Session, error) {
	r.mu.Lock()
	active := len(r.sessions)
	if active >= r.cfg.MaxSessions {
		r.mu.Unlock()
		r.metrics.Add(telemetry.KeySessionsRejected, 1)
		lifecyclelog.SessionRejected(ctx, r.publisher, lifecyclelog.SessionRejectedPayload{
			Active: active,
			Limit:  r.cfg.MaxSessions,
		})
		return nil, ErrCapacity
	}

	id := uuid.NewString()
	var source game.Source
	if r.cfg.NewSource != nil {
		source = r.cfg.NewSource()
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	sess := &Session{
		ID:        id,
		StartedAt: r.cfg.Now(),
		cancel:    cancel,
	}
	sess.controller = game.NewController(game.ControllerConfig{
		Game:     r.cfg.Game,
		Source:   source,
		Ticker:   r.cfg.Ticker,
		Observer: r.observer(sessionCtx, id),
	})
	r.sessions[id] = sess
	r.metrics.Store(telemetry.KeySessionsActive, uint64(len(r.sessions)))
	r.mu.Unlock()

	r.metrics.Add(telemetry.KeySessionsStarted, 1)
	initial := sess.controller.Snapshot()
	lifecyclelog.SessionStarted(ctx, r.publisher, logging.SessionRef(id), lifecyclelog.SessionStartedPayload{
		GridSize:     initial.GridSize,
		TickMillis:   r.cfg.Game.TickInterval.Milliseconds(),
		Collectibles: initial.Collectibles.Len(),
	}, nil)

	go sess.controller.Run(sessionCtx)
	go func() {
		<-sessionCtx.Done()
		r.End(id, ReasonCancelled)
	}()
	return sess, nil
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// End stops the session's loop, waits for its timer to be released and
// forgets it. Ending an unknown or already ended session is a no-op.
func (r *Registry) End(id, reason string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return
	}

	sess.ended.Do(func() {
		sess.cancel()
		<-sess.controller.Done()

		r.mu.Lock()
		delete(r.sessions, id)
		active := len(r.sessions)
		r.mu.Unlock()

		final := sess.controller.Snapshot()
		r.metrics.Add(telemetry.KeySessionsEnded, 1)
		r.metrics.Store(telemetry.KeySessionsActive, uint64(active))
		lifecyclelog.SessionEnded(context.Background(), r.publisher, final.Tick, logging.SessionRef(id), lifecyclelog.SessionEndedPayload{
			Reason:   reason,
			Score:    final.Score,
			GameOver: final.GameOver,
			Ticks:    final.Tick,
		}, nil)
	})
}

// EndAll ends every live session.
func (r *Registry) EndAll(reason string) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.End(id, reason)
		}(id)
	}
	wg.Wait()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Diagnostics lists live sessions, oldest first.
func (r *Registry) Diagnostics() []Info {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, sess := range sessions {
		snapshot := sess.controller.Snapshot()
		infos = append(infos, Info{
			ID:        sess.ID,
			Score:     snapshot.Score,
			Tick:      snapshot.Tick,
			GameOver:  snapshot.GameOver,
			StartedAt: sess.StartedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

func (r *Registry) observer(ctx context.Context, id string) game.Observer {
	actor := logging.SessionRef(id)
	return game.ObserverFunc(func(n game.Notice) {
		switch n.Kind {
		case game.NoticeCollected:
			r.metrics.Add(telemetry.KeyDotsCollected, 1)
			gameplaylog.DotCollected(ctx, r.publisher, n.Tick, actor, gameplaylog.DotCollectedPayload{
				X:     n.Position.X,
				Y:     n.Position.Y,
				Score: n.Score,
			}, nil)
		case game.NoticeGameOver:
			r.metrics.Add(telemetry.KeyGameOvers, 1)
			gameplaylog.GameOver(ctx, r.publisher, n.Tick, actor, gameplaylog.GameOverPayload{
				X:       n.Position.X,
				Y:       n.Position.Y,
				Score:   n.Score,
				Trigger: string(n.Trigger),
			}, nil)
		}
	})
}
