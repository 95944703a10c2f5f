package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/game"
	"pixel-pursuit/server/internal/observability"
	"pixel-pursuit/server/internal/session"
	"pixel-pursuit/server/internal/telemetry"
	"pixel-pursuit/server/logging"
)

const (
	// DefaultPort is used when PORT is unset or invalid.
	DefaultPort = 8080
	// ServiceName is stamped on every log event.
	ServiceName = "pixel-pursuit"
)

// Config is the resolved server configuration.
type Config struct {
	Addr               string
	BaseURL            string
	Title              string
	ClientDir          string
	AccountAssociation frame.AccountAssociation
	Game               game.Config
	MaxSessions        int
	Logging            logging.Config
	Observability      observability.Config
}

// Manifest derives the manifest inputs from the config.
func (c Config) Manifest() frame.ManifestConfig {
	return frame.ManifestConfig{
		BaseURL:            c.BaseURL,
		Title:              c.Title,
		AccountAssociation: c.AccountAssociation,
	}
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	logCfg := logging.DefaultConfig()
	logCfg.Fields = map[string]any{"service": ServiceName}
	return Config{
		Addr:               fmt.Sprintf(":%d", DefaultPort),
		BaseURL:            fmt.Sprintf("http://localhost:%d", DefaultPort),
		Title:              frame.DefaultTitle,
		AccountAssociation: frame.DefaultAccountAssociation,
		Game:               game.DefaultConfig(),
		MaxSessions:        session.DefaultMaxSessions,
		Logging:            logCfg,
	}
}

// LookupFunc reads a variable; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv merges .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// FromEnv reads the process environment.
func FromEnv(logger telemetry.Logger) Config {
	return Load(os.LookupEnv, logger)
}

// Load resolves the config from lookup. Invalid values are logged and the
// default is kept.
func Load(lookup LookupFunc, logger telemetry.Logger) Config {
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	get := func(key string) string {
		if lookup == nil {
			return ""
		}
		value, _ := lookup(key)
		return strings.TrimSpace(value)
	}

	cfg := Default()

	if raw := get("PORT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 && value < 65536 {
			cfg.Addr = fmt.Sprintf(":%d", value)
		} else {
			logger.Printf("invalid PORT=%q", raw)
		}
	}

	publicURL := get("NEXT_PUBLIC_URL")
	productionHost := get("VERCEL_PROJECT_PRODUCTION_URL")
	if publicURL != "" || productionHost != "" {
		cfg.BaseURL = frame.ResolveBaseURL(publicURL, productionHost)
	} else {
		cfg.BaseURL = "http://localhost" + cfg.Addr
	}

	if raw := get("PROJECT_TITLE"); raw != "" {
		cfg.Title = raw
	}
	cfg.ClientDir = get("CLIENT_DIR")

	if raw := get("FARCASTER_HEADER"); raw != "" {
		cfg.AccountAssociation.Header = raw
	}
	if raw := get("FARCASTER_PAYLOAD"); raw != "" {
		cfg.AccountAssociation.Payload = raw
	}
	if raw := get("FARCASTER_SIGNATURE"); raw != "" {
		cfg.AccountAssociation.Signature = raw
	}

	if raw := get("GAME_TICK_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.Game.TickInterval = time.Duration(value) * time.Millisecond
		} else {
			logger.Printf("invalid GAME_TICK_MS=%q", raw)
		}
	}
	if raw := get("GAME_GRID_SIZE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= game.MinGridSize {
			cfg.Game.GridSize = value
		} else {
			logger.Printf("invalid GAME_GRID_SIZE=%q (minimum %d)", raw, game.MinGridSize)
		}
	}
	if raw := get("GAME_SEED"); raw != "" {
		if value, err := strconv.ParseUint(raw, 10, 64); err == nil {
			cfg.Game.Seed = value
		} else {
			logger.Printf("invalid GAME_SEED=%q: %v", raw, err)
		}
	}
	if raw := get("MAX_SESSIONS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxSessions = value
		} else {
			logger.Printf("invalid MAX_SESSIONS=%q", raw)
		}
	}

	if raw := get("ENABLE_PPROF"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Observability.EnablePprof = value
		} else {
			logger.Printf("invalid ENABLE_PPROF=%q: %v", raw, err)
		}
	}

	if raw := get("LOG_SINKS"); raw != "" {
		var sinks []string
		for _, name := range strings.Split(raw, ",") {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				sinks = append(sinks, name)
			}
		}
		cfg.Logging.EnabledSinks = sinks
	}
	if raw := get("LOG_JSON_PATH"); raw != "" {
		cfg.Logging.JSON.FilePath = raw
		if !cfg.Logging.HasSink("json") {
			cfg.Logging.EnabledSinks = append(cfg.Logging.EnabledSinks, "json")
		}
	}
	if raw := get("LOG_MIN_SEVERITY"); raw != "" {
		if severity, err := logging.ParseSeverity(raw); err == nil {
			cfg.Logging.MinimumSeverity = severity
		} else {
			logger.Printf("invalid LOG_MIN_SEVERITY=%q: %v", raw, err)
		}
	}

	cfg.Game = cfg.Game.Normalized()
	return cfg
}
