// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env vars.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// ProviderURL is the base URL of the external analysis backend.
	ProviderURL string `koanf:"provider_url"`

	// ProviderTimeoutMS bounds a single analysis provider call.
	ProviderTimeoutMS int `koanf:"provider_timeout_ms"`

	// ProviderCacheSize bounds the in-memory analysis result cache.
	ProviderCacheSize int `koanf:"provider_cache_size"`

	// StoreBackend selects the KV backend: memory, redis or postgres.
	StoreBackend string `koanf:"store_backend"`

	// RedisAddr, RedisPassword and RedisDB configure the redis backend.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// PostgresDSN configures the postgres backend.
	PostgresDSN string `koanf:"postgres_dsn"`

	// WindowDays is the trailing window used for weekly XP and stats.
	WindowDays int `koanf:"window_days"`

	// MaxWindowDays caps GET /leaderboard?window_days.
	MaxWindowDays int `koanf:"max_window_days"`

	// LeaderboardRefreshSpec is the cron spec for background snapshot rebuilds.
	LeaderboardRefreshSpec string `koanf:"leaderboard_refresh_spec"`

	// SnapshotTTLSeconds is how long a cached leaderboard snapshot is served
	// before an on-demand rebuild kicks in.
	SnapshotTTLSeconds int `koanf:"snapshot_ttl_seconds"`

	// SessionTTLHours bounds the lifetime of login session tokens.
	SessionTTLHours int `koanf:"session_ttl_hours"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9090",
		ProviderURL:            "http://localhost:8000",
		ProviderTimeoutMS:      10_000,
		ProviderCacheSize:      512,
		StoreBackend:           "memory",
		RedisAddr:              "localhost:6379",
		WindowDays:             7,
		MaxWindowDays:          31,
		LeaderboardRefreshSpec: "@every 1m",
		SnapshotTTLSeconds:     60,
		SessionTTLHours:        72,
	}
}
