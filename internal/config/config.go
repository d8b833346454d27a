// Package config holds tether configuration, loaded from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all tether configuration.
type Config struct {
	Bind            string `env:"TETHER_BIND" envDefault:"127.0.0.1"`
	Port            int    `env:"TETHER_PORT" envDefault:"8420"`
	DBPath          string `env:"TETHER_DB_PATH"`
	SessionTTLHours int    `env:"TETHER_SESSION_TTL_HOURS" envDefault:"336"`
}

// Default returns a Config with defaults applied and no environment
// lookup, for tests.
func Default() Config {
	return Config{
		Bind:            "127.0.0.1",
		Port:            8420,
		SessionTTLHours: 336,
	}
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}
