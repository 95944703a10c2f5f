package frame

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedEnvelope means the body is not a {header,payload,signature} object.
	ErrMalformedEnvelope = errors.New("malformed webhook envelope")
	// ErrMalformedPayload means a segment could not be decoded.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrUnknownEvent means the payload names an event hosts never send.
	ErrUnknownEvent = errors.New("unknown webhook event")
)

// WebhookEnvelope is the JSON Farcaster Signature wrapper hosts post.
type WebhookEnvelope struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type webhookHeader struct {
	FID  int64  `json:"fid"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

type webhookPayload struct {
	Event               string               `json:"event"`
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
}

// DecodeWebhook extracts the lifecycle event from a webhook body. The
// signature is carried through but not verified.
func DecodeWebhook(body []byte) (LifecycleEvent, error) {
	var envelope WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return LifecycleEvent{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if envelope.Payload == "" || envelope.Header == "" {
		return LifecycleEvent{}, fmt.Errorf("%w: header and payload are required", ErrMalformedEnvelope)
	}

	var header webhookHeader
	if err := decodeSegment(envelope.Header, &header); err != nil {
		return LifecycleEvent{}, fmt.Errorf("%w: header: %v", ErrMalformedPayload, err)
	}
	var payload webhookPayload
	if err := decodeSegment(envelope.Payload, &payload); err != nil {
		return LifecycleEvent{}, fmt.Errorf("%w: payload: %v", ErrMalformedPayload, err)
	}

	kind, ok := ParseEventKind(payload.Event)
	if !ok || !webhookEvent(kind) {
		return LifecycleEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, payload.Event)
	}

	return LifecycleEvent{
		Kind:                kind,
		FID:                 header.FID,
		NotificationDetails: payload.NotificationDetails,
		Source:              SourceWebhook,
	}, nil
}

// EncodeWebhook builds an envelope for event. Used by tests and local tooling.
func EncodeWebhook(fid int64, kind EventKind, details *NotificationDetails) ([]byte, error) {
	header, err := json.Marshal(webhookHeader{FID: fid, Type: "app_key"})
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(webhookPayload{Event: string(kind), NotificationDetails: details})
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebhookEnvelope{
		Header:    base64.RawURLEncoding.EncodeToString(header),
		Payload:   base64.RawURLEncoding.EncodeToString(payload),
		Signature: "",
	})
}

func webhookEvent(kind EventKind) bool {
	switch kind {
	case EventFrameAdded, EventFrameRemoved, EventNotificationsEnabled, EventNotificationsDisabled:
		return true
	default:
		return false
	}
}

func decodeSegment(segment string, out any) error {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
