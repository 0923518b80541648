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

// EnvConfigFile names the environment variable holding the config file path.
const EnvConfigFile = "KERF_CONFIG"

// Weight profiles are integer percentages summing to this total.
const weightTotal = 100

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if KERF_CONFIG is set
//  3. env (prefix KERF_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: KERF_ADDR, KERF_QUEUE_SIZE, ...
	// Map env keys like KERF_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("KERF_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "kerf_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the service depends on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ControlWindow < 1:
		return fmt.Errorf("%w: control_window must be at least 1", ErrInvalidConfig)
	case c.MaxChartWindow < 1:
		return fmt.Errorf("%w: max_chart_window must be at least 1", ErrInvalidConfig)
	case c.MaxLotHistory < 1:
		return fmt.Errorf("%w: max_lot_history must be at least 1", ErrInvalidConfig)
	case c.HealthWatchAt > c.HealthGoodAt:
		return fmt.Errorf("%w: health_watch_at must not exceed health_good_at", ErrInvalidConfig)
	case c.DPPMGoodBelow > c.DPPMWatchBelow:
		return fmt.Errorf("%w: dppm_good_below must not exceed dppm_watch_below", ErrInvalidConfig)
	}

	if len(c.DefaultWeights) > 0 {
		sum := 0
		for category, weight := range c.DefaultWeights {
			if weight < 0 {
				return fmt.Errorf("%w: default_weights[%s] is negative", ErrInvalidConfig, category)
			}
			sum += weight
		}
		if sum != weightTotal {
			return fmt.Errorf("%w: default_weights sum to %d, want %d", ErrInvalidConfig, sum, weightTotal)
		}
	}

	return nil
}
