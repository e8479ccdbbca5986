// Package config loads the CLI configuration: where market quotes
// come from, how long prices stay fresh, and how chatty logging is.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Market   MarketConfig `yaml:"market"`
}

// MarketConfig configures the market price adapter
type MarketConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	Freshness     time.Duration `yaml:"freshness"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Market: MarketConfig{
			Timeout:       3 * time.Second,
			Freshness:     time.Minute,
			SweepInterval: 5 * time.Minute,
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path
// returns the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets deployment environments point at a different
// quote endpoint without editing the config file
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GRIDCALC_MARKET_ENDPOINT"); v != "" {
		c.Market.Endpoint = v
	}
	if v := os.Getenv("GRIDCALC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
