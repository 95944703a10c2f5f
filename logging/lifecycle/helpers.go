package lifecycle

import (
	"context"

	"pixel-pursuit/server/logging"
)

const (
	// EventSessionStarted is emitted when a game session is created.
	EventSessionStarted logging.EventType = "lifecycle.session_started"
	// EventSessionEnded is emitted when a game session is torn down.
	EventSessionEnded logging.EventType = "lifecycle.session_ended"
	// EventSessionRejected is emitted when the registry is at capacity.
	EventSessionRejected logging.EventType = "lifecycle.session_rejected"
)

// SessionStartedPayload captures the board a session was created with.
type SessionStartedPayload struct {
	GridSize     int   `json:"gridSize"`
	TickMillis   int64 `json:"tickMillis"`
	Collectibles int   `json:"collectibles"`
}

// SessionEndedPayload captures why and how a session finished.
type SessionEndedPayload struct {
	Reason   string `json:"reason"`
	Score    int    `json:"score"`
	GameOver bool   `json:"gameOver"`
	Ticks    uint64 `json:"ticks"`
}

// SessionRejectedPayload captures the capacity that was hit.
type SessionRejectedPayload struct {
	Active int `json:"active"`
	Limit  int `json:"limit"`
}

// SessionStarted publishes a session start event.
func SessionStarted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionStartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionStarted,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// SessionEnded publishes a session teardown event.
func SessionEnded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionEndedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionEnded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// SessionRejected publishes a warning when a session cannot be created.
func SessionRejected(ctx context.Context, pub logging.Publisher, payload SessionRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionRejected,
		Actor:    logging.EntityRef{Kind: logging.EntityKindSystem},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
