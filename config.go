package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// config is read from the environment, optionally seeded from a .env file.
type config struct {
	DBURL               string
	LocalStorePath      string
	JWTSecret           string
	Port                string
	PrimaryReadyTimeout time.Duration
	LogLevel            string
}

func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := config{
		DBURL:               os.Getenv("DB_URL"),
		LocalStorePath:      envOr("LOCAL_STORE_PATH", "data/calorie-tracker.db"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		Port:                envOr("PORT", "3000"),
		PrimaryReadyTimeout: 5 * time.Second,
		LogLevel:            envOr("LOG_LEVEL", "info"),
	}
	if v := os.Getenv("PRIMARY_READY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, fmt.Errorf("invalid PRIMARY_READY_TIMEOUT %q: %w", v, err)
		}
		cfg.PrimaryReadyTimeout = d
	}
	if cfg.JWTSecret == "" {
		return config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger builds a production logger, or a development one at debug level.
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
