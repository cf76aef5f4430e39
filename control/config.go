// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Driver runtime configuration with YAML loading.

package control

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters a driver is built with. Fields are
// immutable per run.
type Config struct {
	// ReadyBatch is the number of readiness records one backend wait
	// may return.
	ReadyBatch int `yaml:"ready_batch"`
	// SuppressLeaks discards leaked-event diagnostics instead of
	// writing them to stderr.
	SuppressLeaks bool `yaml:"suppress_leaks"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		ReadyBatch: 128,
	}
}

// Parse decodes a YAML document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("control: parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and decodes a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("control: read config: %w", err)
	}
	return Parse(data)
}

func (c *Config) validate() error {
	if c.ReadyBatch <= 0 {
		return fmt.Errorf("control: ready_batch must be positive, got %d", c.ReadyBatch)
	}
	return nil
}
