// Package config loads and sanitizes the runtime configuration for the
// sketchdeck server from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
)

// RateLimit defines the parameters for per-connection message rate limiting.
type RateLimit struct {
	Burst          int           `env:"RATE_LIMIT_BURST"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL"`
}

// Config holds the server configuration settings, including the websocket
// security controls and the persistence and signing parameters.
type Config struct {
	Port            string        `env:"SERVER_PORT"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenDuration   time.Duration `env:"AUTH_TOKEN_DURATION"`
	DatabasePath    string        `env:"DATABASE_PATH"`
	LogLevel        string        `env:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimit
}

// Default returns a Config populated with development defaults. Production
// deployments are expected to override at least JWT_SECRET.
func Default() Config {
	return Config{
		Port:            ":8080",
		AllowedOrigins:  "http://localhost:3000,http://localhost:8080",
		MaxMessageSize:  64 * 1024,
		JWTSecret:       "development-secret-change-me",
		TokenDuration:   time.Hour,
		DatabasePath:    "sketchdeck.db",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		RateLimit: RateLimit{
			Burst:          20,
			RefillInterval: time.Second,
		},
	}
}

// Load reads configuration from the environment on top of the defaults and
// sanitizes the result.
func Load() (Config, error) {
	cfg := Default()
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return sanitize(cfg), nil
}

func sanitize(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 64 * 1024
	}
	if cfg.TokenDuration <= 0 {
		cfg.TokenDuration = time.Hour
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "sketchdeck.db"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 20
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	return cfg
}

// Origins splits the configured origin list into its entries, dropping empty
// segments left behind by stray commas.
func (c Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
