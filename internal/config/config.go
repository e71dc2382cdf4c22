// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// CursorThrottle is the minimum interval between accepted cursor updates
	// per connection.
	CursorThrottle time.Duration `env:"CURSOR_THROTTLE" envDefault:"50ms"`

	// ObjectCount sizes the fixed shared-object set created at startup.
	ObjectCount int `env:"OBJECT_COUNT" envDefault:"3"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load reads .env if present, then parses the environment. A missing .env is
// not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ObjectCount < 1 {
		return Config{}, fmt.Errorf("OBJECT_COUNT must be at least 1, got %d", cfg.ObjectCount)
	}
	if cfg.CursorThrottle <= 0 {
		return Config{}, fmt.Errorf("CURSOR_THROTTLE must be positive, got %s", cfg.CursorThrottle)
	}
	return cfg, nil
}
