package frame

import (
	"context"

	"pixel-pursuit/server/logging"
)

const (
	// EventHostLifecycle is emitted for host notifications (added, removed, ...).
	EventHostLifecycle logging.EventType = "frame.host_lifecycle"
	// EventAddOutcome is emitted when the client reports an add-frame result.
	EventAddOutcome logging.EventType = "frame.add_outcome"
	// EventWebhookRejected is emitted when a webhook body cannot be decoded.
	EventWebhookRejected logging.EventType = "frame.webhook_rejected"
)

// HostLifecyclePayload describes a host notification.
type HostLifecyclePayload struct {
	Event           string `json:"event"`
	Source          string `json:"source"`
	FID             int64  `json:"fid,omitempty"`
	NotificationURL string `json:"notificationUrl,omitempty"`
}

// AddOutcomePayload carries the status string surfaced to the user.
type AddOutcomePayload struct {
	Status string `json:"status"`
}

// WebhookRejectedPayload carries the decode error.
type WebhookRejectedPayload struct {
	Error string `json:"error"`
}

// HostLifecycle publishes a host lifecycle notification.
func HostLifecycle(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload HostLifecyclePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHostLifecycle,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryFrame,
		Payload:  payload,
	})
}

// AddOutcome publishes the result of an add-frame request.
func AddOutcome(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, severity logging.Severity, payload AddOutcomePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAddOutcome,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryFrame,
		Payload:  payload,
	})
}

// WebhookRejected publishes a warning for an undecodable webhook.
func WebhookRejected(ctx context.Context, pub logging.Publisher, payload WebhookRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWebhookRejected,
		Actor:    logging.EntityRef{Kind: logging.EntityKindFrame},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryFrame,
		Payload:  payload,
	})
}
