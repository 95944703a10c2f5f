package net

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/game"
	"pixel-pursuit/server/internal/observability"
	"pixel-pursuit/server/internal/session"
	"pixel-pursuit/server/internal/telemetry"
	"pixel-pursuit/server/logging"
	framelog "pixel-pursuit/server/logging/frame"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []frame.LifecycleEvent
}

func (n *recordingNotifier) Lifecycle(_ context.Context, event frame.LifecycleEvent) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) AddOutcome(context.Context, string, error) {}

func testManifest() frame.Manifest {
	return frame.BuildManifest(frame.ManifestConfig{
		BaseURL: "https://pixel.example",
		AccountAssociation: frame.AccountAssociation{
			Header:    "eyJmaWQiOjF9",
			Payload:   "eyJkb21haW4iOiJwaXhlbC5leGFtcGxlIn0",
			Signature: "c2ln",
		},
	})
}

func TestHTTPHealth(t *testing.T) {
	handler := NewHTTPHandler(HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", resp.Code, resp.Body.String())
	}
}

func TestHTTPManifest(t *testing.T) {
	handler := NewHTTPHandler(HTTPHandlerConfig{Manifest: testManifest()})

	req := httptest.NewRequest(http.MethodGet, frame.ManifestPath, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}

	var manifest frame.Manifest
	if err := json.Unmarshal(resp.Body.Bytes(), &manifest); err != nil {
		t.Fatalf("failed to decode manifest: %v", err)
	}
	if manifest.Frame.WebhookURL != "https://pixel.example/api/webhook" {
		t.Fatalf("unexpected webhook url %q", manifest.Frame.WebhookURL)
	}
	if manifest.AccountAssociation.Signature != "c2ln" {
		t.Fatalf("expected account association to be served, got %+v", manifest.AccountAssociation)
	}
}

func TestHTTPManifestRejectsWrongMethod(t *testing.T) {
	handler := NewHTTPHandler(HTTPHandlerConfig{Manifest: testManifest()})

	req := httptest.NewRequest(http.MethodPost, frame.ManifestPath, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", resp.Code)
	}
}

func TestHTTPWebhookAcceptsEvent(t *testing.T) {
	notifier := &recordingNotifier{}
	counters := telemetry.NewCounters()
	handler := NewHTTPHandler(HTTPHandlerConfig{Notifier: notifier, Metrics: counters})

	body, err := frame.EncodeWebhook(42, frame.EventFrameAdded, &frame.NotificationDetails{URL: "https://notify", Token: "t"})
	if err != nil {
		t.Fatalf("failed to encode webhook: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, frame.WebhookPath, bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if resp.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one lifecycle event, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.Kind != frame.EventFrameAdded || event.FID != 42 || event.Source != frame.SourceWebhook {
		t.Fatalf("unexpected lifecycle event %+v", event)
	}
	if got := counters.Load(telemetry.KeyWebhookEvents); got != 1 {
		t.Fatalf("expected one webhook event counted, got %d", got)
	}
}

func TestHTTPWebhookRejectsMalformed(t *testing.T) {
	notifier := &recordingNotifier{}
	counters := telemetry.NewCounters()
	var published []logging.Event
	handler := NewHTTPHandler(HTTPHandlerConfig{
		Notifier: notifier,
		Metrics:  counters,
		Publisher: logging.PublisherFunc(func(_ context.Context, e logging.Event) {
			published = append(published, e)
		}),
	})

	req := httptest.NewRequest(http.MethodPost, frame.WebhookPath, bytes.NewBufferString("{"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 Bad Request, got %d", resp.Code)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no lifecycle events, got %d", len(notifier.events))
	}
	if got := counters.Load(telemetry.KeyWebhookRejected); got != 1 {
		t.Fatalf("expected one rejected webhook, got %d", got)
	}
	if len(published) != 1 || published[0].Type != framelog.EventWebhookRejected {
		t.Fatalf("expected webhook rejection event, got %+v", published)
	}
}

func TestHTTPWebhookRejectsWrongMethod(t *testing.T) {
	handler := NewHTTPHandler(HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, frame.WebhookPath, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", resp.Code)
	}
}

func TestHTTPDiagnostics(t *testing.T) {
	registry := session.NewRegistry(session.Config{
		Ticker: func(time.Duration) (<-chan time.Time, func()) {
			return make(chan time.Time), func() {}
		},
		NewSource: func() game.Source { return game.NewSequenceSource(0.5) },
	}, nil, nil)
	sess, err := registry.Start(context.Background())
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	t.Cleanup(func() { registry.EndAll(session.ReasonShutdown) })

	handler := NewHTTPHandler(HTTPHandlerConfig{
		Registry:  registry,
		Telemetry: func() map[string]uint64 { return map[string]uint64{telemetry.KeySessionsStarted: 1} },
		LogStats:  func() logging.RouterStats { return logging.RouterStats{EventsTotal: 3} },
		RecentEvents: func() []logging.Event {
			return []logging.Event{{Type: "lifecycle.session_started", Severity: logging.SeverityInfo}}
		},
		Now: func() time.Time { return time.UnixMilli(1_234) },
	})

	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload struct {
		Status     string            `json:"status"`
		ServerTime int64             `json:"serverTime"`
		Sessions   []session.Info    `json:"sessions"`
		Counters   map[string]uint64 `json:"counters"`
		Logging    struct {
			EventsTotal uint64 `json:"eventsTotal"`
		} `json:"logging"`
		RecentEvents []struct {
			Type     string `json:"type"`
			Severity string `json:"severity"`
		} `json:"recentEvents"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics payload: %v", err)
	}
	if payload.Status != "ok" || payload.ServerTime != 1_234 {
		t.Fatalf("unexpected diagnostics header %+v", payload)
	}
	if len(payload.Sessions) != 1 || payload.Sessions[0].ID != sess.ID {
		t.Fatalf("expected session %s in diagnostics, got %+v", sess.ID, payload.Sessions)
	}
	if payload.Counters[telemetry.KeySessionsStarted] != 1 {
		t.Fatalf("expected counters to be reported, got %v", payload.Counters)
	}
	if payload.Logging.EventsTotal != 3 {
		t.Fatalf("expected logging stats, got %+v", payload.Logging)
	}
	if len(payload.RecentEvents) != 1 || payload.RecentEvents[0].Severity != "info" {
		t.Fatalf("expected recent events with text severity, got %+v", payload.RecentEvents)
	}
}

func TestHTTPServesEmbeddedClient(t *testing.T) {
	client := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html>pixel</html>")},
	}
	handler := NewHTTPHandler(HTTPHandlerConfig{ClientFS: client})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if resp.Body.String() != "<html>pixel</html>" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestHTTPPprofIsOptIn(t *testing.T) {
	client := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html>pixel</html>")},
	}
	for _, enabled := range []bool{false, true} {
		handler := NewHTTPHandler(HTTPHandlerConfig{
			ClientFS:      client,
			Observability: observability.Config{EnablePprof: enabled},
		})

		req := httptest.NewRequest(http.MethodGet, observability.PprofPrefix+"cmdline", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if enabled && resp.Code != http.StatusOK {
			t.Fatalf("expected pprof to answer when enabled, got %d", resp.Code)
		}
		if !enabled && resp.Code != http.StatusNotFound {
			t.Fatalf("expected 404 when pprof is disabled, got %d", resp.Code)
		}
	}
}
