package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pixel-pursuit/server/internal/app"
	"pixel-pursuit/server/internal/config"
	"pixel-pursuit/server/internal/telemetry"
	"pixel-pursuit/server/web"
)

func main() {
	logger := telemetry.WrapLogger(log.Default())
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{
		Logger:   logger,
		Settings: config.FromEnv(logger),
		ClientFS: web.Client(),
	}); err != nil {
		log.Fatalf("%v", err)
	}
}
