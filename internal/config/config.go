package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/G1D0/Http-Interceptor/internal/middleware"
)

// Config is the top-level YAML configuration for the interceptor host.
type Config struct {
	// Addr is the listen address, e.g. ":8001".
	Addr string `yaml:"addr"`

	// LogLevel is the minimum log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "text".
	LogFormat string `yaml:"log_format"`

	// Facility is the optional logical service name used to qualify the
	// action name in emitted events.
	Facility string `yaml:"facility,omitempty"`

	// ExcludePaths are regular expressions matched against the full
	// request URL; matching requests bypass interception entirely.
	ExcludePaths []string `yaml:"exclude_paths"`

	// DrainTimeoutSeconds is how long shutdown waits for in-flight
	// requests.
	DrainTimeoutSeconds int `yaml:"drain_timeout_seconds"`
}

// Default returns the configuration used when no file is given. The
// exclusion set covers probes, API docs, favicon, and the metrics endpoint.
func Default() *Config {
	return &Config{
		Addr:                ":8001",
		LogLevel:            "info",
		LogFormat:           "json",
		ExcludePaths:        append(append([]string{}, middleware.DefaultExcludePatterns...), `.+/metrics`),
		DrainTimeoutSeconds: 30,
	}
}

// DrainTimeout returns the shutdown drain timeout as a duration.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutSeconds) * time.Second
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a Config, filling unset fields from Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that the config is semantically valid. A bad exclusion
// pattern is a startup error, never a per-request one.
func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if cfg.DrainTimeoutSeconds < 0 {
		return fmt.Errorf("drain_timeout_seconds cannot be negative")
	}
	for _, p := range cfg.ExcludePaths {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", p, err)
		}
	}
	return nil
}
