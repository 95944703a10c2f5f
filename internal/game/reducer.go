package game

// EventKind enumerates the stimuli the controller serializes.
type EventKind string

const (
	// EventMove is a directional keyboard input.
	EventMove EventKind = "move"
	// EventTick is one firing of the adversary timer.
	EventTick EventKind = "tick"
)

// Event is a single discrete stimulus.
type Event struct {
	Kind EventKind
	DX   int
	DY   int
}

// MoveEvent builds a player move for the given direction.
func MoveEvent(dir Direction) Event {
	dx, dy := dir.Delta()
	return Event{Kind: EventMove, DX: dx, DY: dy}
}

// TickEvent builds an adversary step.
func TickEvent() Event {
	return Event{Kind: EventTick}
}

// NoticeKind enumerates what observers are told about.
type NoticeKind string

const (
	NoticeCollected NoticeKind = "collected"
	NoticeGameOver  NoticeKind = "gameOver"
)

// Notice describes a state change produced while reducing an event.
type Notice struct {
	Kind     NoticeKind
	Tick     uint64
	Position Position
	Score    int
	Trigger  EventKind
}

// Apply reduces one event against s and evaluates collision before returning.
// Terminal states absorb every event unchanged. rng is only read for ticks.
func Apply(s State, ev Event, rng Source) (State, []Notice) {
	if s.GameOver {
		return s, nil
	}

	var notices []Notice
	next := s
	switch ev.Kind {
	case EventMove:
		if ev.DX == 0 && ev.DY == 0 {
			return s, nil
		}
		next.Player = ClampMove(s.Player, ev.DX, ev.DY, s.GridSize)
		if remaining, ok := s.Collectibles.CollectAt(next.Player); ok {
			next.Collectibles = remaining
			next.Score += DotReward
			notices = append(notices, Notice{
				Kind:     NoticeCollected,
				Tick:     next.Tick,
				Position: next.Player,
				Score:    next.Score,
				Trigger:  ev.Kind,
			})
		}
	case EventTick:
		next.Tick++
		next.Adversaries = make([]Adversary, len(s.Adversaries))
		for i, adversary := range s.Adversaries {
			dx := randomStep(rng)
			dy := randomStep(rng)
			adversary.Position = ClampMove(adversary.Position, dx, dy, s.GridSize)
			next.Adversaries[i] = adversary
		}
	default:
		return s, nil
	}

	if DetectCollision(next.Player, next.Adversaries) {
		next.GameOver = true
		notices = append(notices, Notice{
			Kind:     NoticeGameOver,
			Tick:     next.Tick,
			Position: next.Player,
			Score:    next.Score,
			Trigger:  ev.Kind,
		})
	}
	return next, notices
}

func randomStep(rng Source) int {
	if rng != nil && rng.Float64() > 0.5 {
		return 1
	}
	return -1
}
