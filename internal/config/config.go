// Package config holds the small yaml configuration for the CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-sn3218/sn3218"
)

type Config struct {
	// Bus names the I2C bus to open ("1", "/dev/i2c-1", ...). Empty
	// picks the first available bus.
	Bus string `yaml:"bus,omitempty"`
	// Gamma is the exponent for the shared correction curve.
	Gamma float64 `yaml:"gamma"`
	// DelayMs is the inter-frame delay for fades, in milliseconds.
	DelayMs float64 `yaml:"delay_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Gamma: sn3218.DefaultGamma, DelayMs: 10}
}

// Delay returns DelayMs as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelayMs * float64(time.Millisecond))
}

// Load reads a config file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if c.Gamma <= 0 {
		return nil, fmt.Errorf("config: gamma must be positive, got %g", c.Gamma)
	}
	if c.DelayMs < 0 {
		return nil, fmt.Errorf("config: delay_ms must not be negative, got %g", c.DelayMs)
	}
	return c, nil
}

// Save writes c to path.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
