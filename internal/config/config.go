package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"tickbot/internal/signal"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the replay runner.
type Config struct {
	Logging  Logging  `yaml:"logging"`
	Strategy Strategy `yaml:"strategy"`
	Store    Store    `yaml:"store"`
	Runner   Runner   `yaml:"runner"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Strategy holds the crossover parameters.
type Strategy struct {
	ShortWindow   int `yaml:"short_window"`
	LongWindow    int `yaml:"long_window"`
	OrderQuantity int `yaml:"order_quantity"`
}

// Params converts the section into trader parameters.
func (s Strategy) Params() signal.Params {
	return signal.Params{
		ShortWindow:   s.ShortWindow,
		LongWindow:    s.LongWindow,
		OrderQuantity: s.OrderQuantity,
	}
}

// Store locates the run journal. An empty path disables journaling.
type Store struct {
	Path string `yaml:"path"`
}

// Runner controls how scenarios are replayed.
type Runner struct {
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is given. The strategy
// section reproduces the reference crossover (3/6, quantity 10).
func Default() *Config {
	p := signal.DefaultParams()
	return &Config{
		Logging: Logging{Level: "info", Format: "console"},
		Strategy: Strategy{
			ShortWindow:   p.ShortWindow,
			LongWindow:    p.LongWindow,
			OrderQuantity: p.OrderQuantity,
		},
		Runner: Runner{Workers: 1},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, and then applies environment variable overrides. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.Runner.Workers < 1 {
		cfg.Runner.Workers = 1
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TICKBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TICKBOT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TICKBOT_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TICKBOT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TICKBOT_WORKERS: %w", err)
		}
		cfg.Runner.Workers = n
	}
	return nil
}
