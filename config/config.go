// Package config loads and validates PlotStream configuration from JSON or
// YAML files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/plotstream/errors"
)

// DefaultTimeSignal is the well-known time-axis signal registered by the
// simulation; every filter is seeded with it.
const DefaultTimeSignal = "data://world/default?p=sim_time"

// Config represents the complete application configuration
type Config struct {
	NATS    NATSConfig    `json:"nats"              yaml:"nats"`
	Handler HandlerConfig `json:"handler"           yaml:"handler"`
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Output  OutputConfig  `json:"output,omitempty"  yaml:"output,omitempty"`
}

// NATSConfig defines the bus connection
type NATSConfig struct {
	URL           string `json:"url"                      yaml:"url"`
	Name          string `json:"name,omitempty"           yaml:"name,omitempty"`
	MaxReconnects int    `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	Timeout       string `json:"timeout,omitempty"        yaml:"timeout,omitempty"` // e.g. "5s"
}

// HandlerConfig defines curve handler behaviour
type HandlerConfig struct {
	// DiscoveryTimeout bounds the wait for an introspection manager (e.g. "2s")
	DiscoveryTimeout string `json:"discovery_timeout,omitempty" yaml:"discovery_timeout,omitempty"`
	// TimeSignal is the well-known time-axis signal identifier
	TimeSignal string `json:"time_signal,omitempty" yaml:"time_signal,omitempty"`
}

// MetricsConfig defines the Prometheus scrape endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Port    int    `json:"port,omitempty"    yaml:"port,omitempty"`
	Path    string `json:"path,omitempty"    yaml:"path,omitempty"`
}

// OutputConfig defines the websocket curve streaming endpoint
type OutputConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Port    int    `json:"port,omitempty"    yaml:"port,omitempty"`
	Path    string `json:"path,omitempty"    yaml:"path,omitempty"`
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Name:          "plotstream",
			MaxReconnects: -1,
			Timeout:       "5s",
		},
		Handler: HandlerConfig{
			DiscoveryTimeout: "2s",
			TimeSignal:       DefaultTimeSignal,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Output: OutputConfig{
			Enabled: false,
			Port:    8081,
			Path:    "/curves",
		},
	}
}

// Load reads a configuration file (JSON or YAML by extension), applies
// defaults for omitted fields, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config", "Load", "read file")
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "yaml parse")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "json parse")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for correctness
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nats.url", errors.ErrMissingConfig),
			"config", "Validate", "nats url check")
	}
	if c.Handler.TimeSignal == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: handler.time_signal", errors.ErrMissingConfig),
			"config", "Validate", "time signal check")
	}

	if _, err := c.DiscoveryTimeout(); err != nil {
		return err
	}
	if _, err := c.NATSTimeout(); err != nil {
		return err
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: metrics.port %d", errors.ErrInvalidConfig, c.Metrics.Port),
			"config", "Validate", "metrics port check")
	}
	if c.Output.Enabled && (c.Output.Port <= 0 || c.Output.Port > 65535) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: output.port %d", errors.ErrInvalidConfig, c.Output.Port),
			"config", "Validate", "output port check")
	}
	return nil
}

// DiscoveryTimeout parses the handler discovery timeout
func (c *Config) DiscoveryTimeout() (time.Duration, error) {
	return parseDuration(c.Handler.DiscoveryTimeout, 2*time.Second, "handler.discovery_timeout")
}

// NATSTimeout parses the NATS connection timeout
func (c *Config) NATSTimeout() (time.Duration, error) {
	return parseDuration(c.NATS.Timeout, 5*time.Second, "nats.timeout")
}

func parseDuration(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.WrapInvalid(
			fmt.Errorf("%w: %s %q", errors.ErrInvalidConfig, field, s),
			"config", "Validate", "duration parse")
	}
	if d <= 0 {
		return 0, errors.WrapInvalid(
			fmt.Errorf("%w: %s must be positive", errors.ErrInvalidConfig, field),
			"config", "Validate", "duration range check")
	}
	return d, nil
}
