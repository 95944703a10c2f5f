package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"pixel-pursuit/server/internal/app"
	"pixel-pursuit/server/internal/config"
	"pixel-pursuit/server/internal/game"
	"pixel-pursuit/server/internal/session"
	"pixel-pursuit/server/internal/telemetry"
	"pixel-pursuit/server/internal/tui"
	"pixel-pursuit/server/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("%v", err)
	}
	settings := config.FromEnv(telemetry.WrapLogger(log.Default()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	final, err := play(ctx, settings)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if final.GameOver {
		fmt.Printf("Game over! Final score: %d\n", final.Score)
	} else {
		fmt.Printf("Score: %d\n", final.Score)
	}
}

// play runs one session on the controlling terminal. Anything written to
// stdout or stderr while the screen is active would corrupt it, so only a
// file-backed json sink is kept.
func play(ctx context.Context, settings config.Config) (game.State, error) {
	quiet := log.New(io.Discard, "", 0)

	settings.Logging.Fields = map[string]any{"service": config.ServiceName, "client": "terminal"}
	settings.Logging.EnabledSinks = nil
	if settings.Logging.JSON.FilePath != "" {
		settings.Logging.EnabledSinks = []string{"json"}
	}
	sinks, err := app.BuildSinks(settings.Logging, telemetry.WrapLogger(quiet))
	if err != nil {
		return game.State{}, fmt.Errorf("failed to construct logging sinks: %w", err)
	}
	router := logging.NewRouter(logging.SystemClock{}, settings.Logging, sinks, quiet)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(closeCtx)
	}()

	registry := session.NewRegistry(session.Config{
		Game:        settings.Game,
		MaxSessions: 1,
	}, router, telemetry.NopMetrics{})
	sess, err := registry.Start(ctx)
	if err != nil {
		return game.State{}, fmt.Errorf("failed to start session: %w", err)
	}
	defer registry.End(sess.ID, session.ReasonQuit)

	screen, err := tcell.NewScreen()
	if err != nil {
		return game.State{}, fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return game.State{}, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	if err := tui.Run(ctx, screen, sess, settings.Title); err != nil {
		return game.State{}, err
	}
	return sess.Snapshot(), nil
}
