package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if ECOLENS_CONFIG is set
//  3. env (prefix ECOLENS_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("ECOLENS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: ECOLENS_ADDR, ECOLENS_PROVIDER_URL, ...
	// Keys map to the koanf tags on the struct, underscores preserved.
	envProvider := env.Provider("ECOLENS_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "ecolens_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ProviderURL == "":
		return fmt.Errorf("%w: provider_url must not be empty", ErrInvalidConfig)
	case c.WindowDays < 1:
		return fmt.Errorf("%w: window_days must be positive", ErrInvalidConfig)
	case c.MaxWindowDays < c.WindowDays:
		return fmt.Errorf("%w: max_window_days must be >= window_days", ErrInvalidConfig)
	}
	switch c.StoreBackend {
	case "", "memory", "redis", "postgres":
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}
