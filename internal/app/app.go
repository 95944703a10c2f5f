package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pixel-pursuit/server/internal/config"
	"pixel-pursuit/server/internal/frame"
	servernet "pixel-pursuit/server/internal/net"
	"pixel-pursuit/server/internal/net/ws"
	"pixel-pursuit/server/internal/session"
	"pixel-pursuit/server/internal/telemetry"
	"pixel-pursuit/server/logging"
	loggingSinks "pixel-pursuit/server/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Logger   telemetry.Logger
	Settings config.Config
	// Listener overrides Settings.Addr; tests bind an ephemeral port.
	Listener net.Listener
	// ClientFS serves the web client when Settings.ClientDir is empty.
	ClientFS fs.FS
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	settings := cfg.Settings
	sinks, err := BuildSinks(settings.Logging, telemetryLogger)
	if err != nil {
		return fmt.Errorf("failed to construct logging sinks: %w", err)
	}
	recent := loggingSinks.NewMemory(loggingSinks.DefaultMemoryCapacity)
	sinks = append(sinks, logging.NamedSink{Name: "recent", Sink: recent})
	router := logging.NewRouter(logging.SystemClock{}, settings.Logging, sinks, fallbackLogger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	counters := telemetry.NewCounters()
	registry := session.NewRegistry(session.Config{
		Game:        settings.Game,
		MaxSessions: settings.MaxSessions,
	}, router, counters)
	notifier := frame.LogNotifier{Publisher: router}

	wsHandler := ws.NewHandler(ws.Config{
		Registry: registry,
		Notifier: notifier,
		Logger:   telemetryLogger,
		Metrics:  counters,
		Title:    settings.Title,
	})

	handler := servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
		Registry:      registry,
		Manifest:      frame.BuildManifest(settings.Manifest()),
		Notifier:      notifier,
		Publisher:     router,
		Metrics:       counters,
		Telemetry:     counters.Snapshot,
		LogStats:      router.Stats,
		RecentEvents:  recent.Events,
		Observability: settings.Observability,
		WebSocket:     wsHandler,
		ClientDir:     settings.ClientDir,
		ClientFS:      cfg.ClientFS,
		Logger:        telemetryLogger,
	})

	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var serveErr error
		if cfg.Listener != nil {
			telemetryLogger.Printf("server listening on %s", cfg.Listener.Addr())
			serveErr = srv.Serve(cfg.Listener)
		} else {
			telemetryLogger.Printf("server listening on %s", srv.Addr)
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", serveErr)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		registry.EndAll(session.ReasonShutdown)
		if err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return group.Wait()
}

// BuildSinks opens the sinks named in cfg. The json sink writes to
// cfg.JSON.FilePath, or stdout when no path is set.
func BuildSinks(cfg logging.Config, logger telemetry.Logger) ([]logging.NamedSink, error) {
	var sinks []logging.NamedSink
	for _, name := range cfg.EnabledSinks {
		switch name {
		case "console":
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewConsole(os.Stdout)})
		case "json":
			if cfg.JSON.FilePath == "" {
				sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewJSON(struct{ io.Writer }{os.Stdout}, cfg.JSON.FlushInterval)})
				continue
			}
			file, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", cfg.JSON.FilePath, err)
			}
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval)})
		default:
			logger.Printf("ignoring unknown log sink %q", name)
		}
	}
	return sinks, nil
}
