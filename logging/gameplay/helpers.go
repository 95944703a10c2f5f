package gameplay

import (
	"context"

	"pixel-pursuit/server/logging"
)

const (
	// EventDotCollected is emitted when the player consumes a collectible.
	EventDotCollected logging.EventType = "gameplay.dot_collected"
	// EventGameOver is emitted when an adversary catches the player.
	EventGameOver logging.EventType = "gameplay.game_over"
)

// DotCollectedPayload records where the dot was and the resulting score.
type DotCollectedPayload struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Score int `json:"score"`
}

// GameOverPayload records the final score and what caused the collision.
type GameOverPayload struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Score   int    `json:"score"`
	Trigger string `json:"trigger"`
}

// DotCollected publishes a debug event for each consumed dot.
func DotCollected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DotCollectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDotCollected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	})
}

// GameOver publishes the terminal transition of a session.
func GameOver(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GameOverPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGameOver,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{{Kind: logging.EntityKindAdversary}},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	})
}
