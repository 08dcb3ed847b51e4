// Package config loads the optional datalog.yaml controlling front-end
// limits and output behavior.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultInstantiationDepth caps recursive component expansion.
const DefaultInstantiationDepth = 1000

// Config is the top-level datalog.yaml configuration.
type Config struct {
	// InstantiationDepth bounds recursive component expansion; exceeding it
	// aborts the offending instantiation with an error.
	InstantiationDepth int `yaml:"instantiation_depth,omitempty"`

	// Color controls diagnostic coloring: "auto" (default), "always", "never".
	Color string `yaml:"color,omitempty"`

	// Show lists extra dumps the driver emits: "ast", "types", "type-analysis".
	Show []string `yaml:"show,omitempty"`
}

// Default returns the configuration used when no datalog.yaml is present.
func Default() *Config {
	return &Config{
		InstantiationDepth: DefaultInstantiationDepth,
		Color:              "auto",
	}
}

// Load reads and validates a yaml config file, filling in defaults for
// absent keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.InstantiationDepth <= 0 {
		c.InstantiationDepth = DefaultInstantiationDepth
	}
	if c.Color == "" {
		c.Color = "auto"
	}
}

// Showing reports whether the named dump was requested.
func (c *Config) Showing(what string) bool {
	for _, s := range c.Show {
		if s == what {
			return true
		}
	}
	return false
}
