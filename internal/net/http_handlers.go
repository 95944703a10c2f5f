package net

import (
	"encoding/json"
	"io"
	"io/fs"
	nethttp "net/http"
	"time"

	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/observability"
	"pixel-pursuit/server/internal/session"
	"pixel-pursuit/server/internal/telemetry"
	"pixel-pursuit/server/logging"
	framelog "pixel-pursuit/server/logging/frame"
)

const maxWebhookBytes = 64 << 10

type HTTPHandlerConfig struct {
	Registry  *session.Registry
	Manifest  frame.Manifest
	Notifier  frame.Notifier
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	// Telemetry feeds /diagnostics; nil omits the counters.
	Telemetry func() map[string]uint64
	// LogStats feeds /diagnostics; nil omits the router stats.
	LogStats func() logging.RouterStats
	// RecentEvents feeds /diagnostics with the newest log events.
	RecentEvents  func() []logging.Event
	Observability observability.Config
	WebSocket     nethttp.Handler
	ClientDir     string
	ClientFS      fs.FS
	Logger        telemetry.Logger
	Now           func() time.Time
}

func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	manifest, err := json.Marshal(cfg.Manifest)
	if err != nil {
		logger.Printf("failed to encode manifest: %v", err)
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status       string               `json:"status"`
			ServerTime   int64                `json:"serverTime"`
			Sessions     []session.Info       `json:"sessions"`
			Counters     map[string]uint64    `json:"counters,omitempty"`
			Logging      *logging.RouterStats `json:"logging,omitempty"`
			RecentEvents []logging.Event      `json:"recentEvents,omitempty"`
		}{
			Status:     "ok",
			ServerTime: now().UnixMilli(),
			Sessions:   []session.Info{},
		}
		if cfg.Registry != nil {
			payload.Sessions = cfg.Registry.Diagnostics()
		}
		if cfg.Telemetry != nil {
			payload.Counters = cfg.Telemetry()
		}
		if cfg.LogStats != nil {
			stats := cfg.LogStats()
			payload.Logging = &stats
		}
		if cfg.RecentEvents != nil {
			payload.RecentEvents = cfg.RecentEvents()
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc(frame.ManifestPath, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet && r.Method != nethttp.MethodHead {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if manifest == nil {
			httpError(w, "manifest unavailable", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Write(manifest)
	})

	mux.HandleFunc(frame.WebhookPath, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		defer r.Body.Close()
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			httpError(w, "failed to read body", nethttp.StatusBadRequest)
			return
		}

		event, err := frame.DecodeWebhook(body)
		if err != nil {
			metrics.Add(telemetry.KeyWebhookRejected, 1)
			framelog.WebhookRejected(r.Context(), cfg.Publisher, framelog.WebhookRejectedPayload{Error: err.Error()})
			httpError(w, "invalid webhook payload", nethttp.StatusBadRequest)
			return
		}

		metrics.Add(telemetry.KeyWebhookEvents, 1)
		if cfg.Notifier != nil {
			cfg.Notifier.Lifecycle(r.Context(), event)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.WebSocket != nil {
		mux.Handle("/ws", cfg.WebSocket)
	}
	cfg.Observability.Register(mux)

	switch {
	case cfg.ClientDir != "":
		mux.Handle("/", nethttp.FileServer(nethttp.Dir(cfg.ClientDir)))
	case cfg.ClientFS != nil:
		mux.Handle("/", nethttp.FileServer(nethttp.FS(cfg.ClientFS)))
	}

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
