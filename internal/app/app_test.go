package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"

	"pixel-pursuit/server/internal/config"
	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/telemetry"
	lifecyclelog "pixel-pursuit/server/logging/lifecycle"
)

func TestRunServesAndShutsDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	base := "http://" + listener.Addr().String()

	eventsPath := filepath.Join(t.TempDir(), "events.jsonl")
	settings := config.Default()
	settings.BaseURL = "https://pixel.example"
	settings.Logging.EnabledSinks = []string{"json", "bogus"}
	settings.Logging.JSON.FilePath = eventsPath
	settings.Logging.JSON.FlushInterval = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{
			Logger:   telemetry.WrapLogger(log.New(io.Discard, "", 0)),
			Settings: settings,
			Listener: listener,
			ClientFS: fstest.MapFS{"index.html": &fstest.MapFile{Data: []byte("client")}},
		})
	}()

	waitForHealth(t, base)

	resp, err := http.Get(base + frame.ManifestPath)
	if err != nil {
		t.Fatalf("failed to fetch manifest: %v", err)
	}
	var manifest frame.Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		t.Fatalf("failed to decode manifest: %v", err)
	}
	resp.Body.Close()
	if manifest.Frame.HomeURL != "https://pixel.example" {
		t.Fatalf("expected home url from settings, got %q", manifest.Frame.HomeURL)
	}

	conn, wsResp, err := websocket.DefaultDialer.Dial("ws://"+listener.Addr().String()+"/ws", nil)
	if wsResp != nil {
		wsResp.Body.Close()
	}
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("failed to read session message: %v", err)
	}
	waitForRecentEvent(t, base, string(lifecyclelog.EventSessionStarted))

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not shut down")
	}

	data, err := os.ReadFile(eventsPath)
	if err != nil {
		t.Fatalf("failed to read events file: %v", err)
	}
	for _, eventType := range []string{string(lifecyclelog.EventSessionStarted), string(lifecyclelog.EventSessionEnded), `"service":"` + config.ServiceName + `"`} {
		if !strings.Contains(string(data), eventType) {
			t.Fatalf("expected %s in events log, got %s", eventType, data)
		}
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer occupied.Close()

	settings := config.Default()
	settings.Addr = occupied.Addr().String()
	settings.Logging.EnabledSinks = nil

	err = Run(context.Background(), Config{
		Logger:   telemetry.WrapLogger(log.New(io.Discard, "", 0)),
		Settings: settings,
	})
	if err == nil {
		t.Fatalf("expected listen failure")
	}
}

func waitForHealth(t *testing.T, base string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server never became healthy")
}

func waitForRecentEvent(t *testing.T, base, eventType string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/diagnostics")
		if err == nil {
			var payload struct {
				RecentEvents []struct {
					Type string `json:"type"`
				} `json:"recentEvents"`
			}
			decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
			resp.Body.Close()
			if decodeErr == nil {
				for _, event := range payload.RecentEvents {
					if event.Type == eventType {
						return
					}
				}
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %s in diagnostics recent events", eventType)
}
