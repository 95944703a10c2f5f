package frame

import (
	"context"
	"errors"
	"fmt"

	"pixel-pursuit/server/logging"
	framelog "pixel-pursuit/server/logging/frame"
)

var (
	// ErrRejectedByUser means the user declined the add prompt.
	ErrRejectedByUser = errors.New("rejected by user")
	// ErrInvalidDomainManifest means the host could not validate the manifest.
	ErrInvalidDomainManifest = errors.New("invalid domain manifest")
)

// Add results reported by the client.
const (
	AddResultAdded                 = "added"
	AddResultRejectedByUser        = "rejected_by_user"
	AddResultInvalidDomainManifest = "invalid_domain_manifest"
	AddResultError                 = "error"
)

// AddError carries the host's message for a failed add request.
type AddError struct {
	Kind    error
	Message string
}

func (e *AddError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

func (e *AddError) Unwrap() error {
	return e.Kind
}

// ErrorForAddResult converts a reported add result into an error; nil means
// the frame was added.
func ErrorForAddResult(result, message string) error {
	switch result {
	case AddResultAdded:
		return nil
	case AddResultRejectedByUser:
		return &AddError{Kind: ErrRejectedByUser, Message: message}
	case AddResultInvalidDomainManifest:
		return &AddError{Kind: ErrInvalidDomainManifest, Message: message}
	default:
		return &AddError{Message: message}
	}
}

// AddStatus renders the user-visible status line for an add outcome.
func AddStatus(err error) string {
	switch {
	case err == nil:
		return "Added"
	case errors.Is(err, ErrRejectedByUser), errors.Is(err, ErrInvalidDomainManifest):
		return fmt.Sprintf("Not added: %s", err.Error())
	default:
		return fmt.Sprintf("Error: %s", err.Error())
	}
}

// EventKind enumerates host lifecycle notifications.
type EventKind string

const (
	EventFrameAdded            EventKind = "frame_added"
	EventFrameAddRejected      EventKind = "frame_add_rejected"
	EventFrameRemoved          EventKind = "frame_removed"
	EventNotificationsEnabled  EventKind = "notifications_enabled"
	EventNotificationsDisabled EventKind = "notifications_disabled"
	EventPrimaryButtonClicked  EventKind = "primary_button_clicked"
)

// ParseEventKind validates a lifecycle event name.
func ParseEventKind(raw string) (EventKind, bool) {
	switch kind := EventKind(raw); kind {
	case EventFrameAdded, EventFrameAddRejected, EventFrameRemoved,
		EventNotificationsEnabled, EventNotificationsDisabled, EventPrimaryButtonClicked:
		return kind, true
	default:
		return "", false
	}
}

// NotificationDetails are issued by the host when notifications are enabled.
type NotificationDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// LifecycleEvent is a host notification, from the webhook or the client.
type LifecycleEvent struct {
	Kind                EventKind            `json:"event"`
	FID                 int64                `json:"fid,omitempty"`
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
	Source              string               `json:"source"`
	SessionID           string               `json:"sessionId,omitempty"`
}

// Event sources.
const (
	SourceWebhook = "webhook"
	SourceClient  = "client"
)

// Notifier is an optional sink for host notifications. The game never
// depends on it.
type Notifier interface {
	Lifecycle(ctx context.Context, event LifecycleEvent)
	AddOutcome(ctx context.Context, sessionID string, err error)
}

// LogNotifier publishes host notifications as structured log events.
type LogNotifier struct {
	Publisher logging.Publisher
}

// Lifecycle implements Notifier.
func (n LogNotifier) Lifecycle(ctx context.Context, event LifecycleEvent) {
	actor := logging.EntityRef{Kind: logging.EntityKindFrame}
	if event.SessionID != "" {
		actor = logging.SessionRef(event.SessionID)
	}
	payload := framelog.HostLifecyclePayload{
		Event:  string(event.Kind),
		Source: event.Source,
		FID:    event.FID,
	}
	if event.NotificationDetails != nil {
		payload.NotificationURL = event.NotificationDetails.URL
	}
	framelog.HostLifecycle(ctx, n.Publisher, actor, payload)
}

// AddOutcome implements Notifier.
func (n LogNotifier) AddOutcome(ctx context.Context, sessionID string, err error) {
	severity := logging.SeverityInfo
	if err != nil {
		severity = logging.SeverityWarn
	}
	framelog.AddOutcome(ctx, n.Publisher, logging.SessionRef(sessionID), severity, framelog.AddOutcomePayload{Status: AddStatus(err)})
}

// SafeAreaInsets is the padding the host asks the layout to respect.
type SafeAreaInsets struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Clamped drops negative insets.
func (s SafeAreaInsets) Clamped() SafeAreaInsets {
	return SafeAreaInsets{
		Top:    max(s.Top, 0),
		Bottom: max(s.Bottom, 0),
		Left:   max(s.Left, 0),
		Right:  max(s.Right, 0),
	}
}
