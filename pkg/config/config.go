// Package config loads the proxy's YAML configuration, layering a
// file's contents over DefaultConfig so a config file only needs to
// name the fields it overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the proxy's full configuration.
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Network   NetworkConfig   `yaml:"network"`
	Reporting ReportingConfig `yaml:"reporting"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// FrameworkConfig contains general ambient settings.
type FrameworkConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// NetworkConfig contains the socket and determinism settings.
type NetworkConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	PeerAddr   string `yaml:"peer_addr"`
	Seed       int64  `yaml:"seed"`
	MTU        int    `yaml:"mtu"`
}

// ReportingConfig contains run-directory and trace settings.
type ReportingConfig struct {
	RunsDir string `yaml:"runs_dir"`
}

// MetricsConfig contains the Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no file is given
// and no flag overrides a field.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		Network: NetworkConfig{
			ListenAddr: "127.0.0.1:2003",
			PeerAddr:   "127.0.0.1:2004",
			Seed:       0,
			MTU:        4096,
		},
		Reporting: ReportingConfig{
			RunsDir: "./Runs",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
	}
}

// Load loads configuration from a YAML file, layered over
// DefaultConfig. If path does not exist, the defaults are returned
// unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for startup-fatal problems.
func (c *Config) Validate() error {
	if c.Network.ListenAddr == "" {
		return fmt.Errorf("network.listen_addr is required")
	}
	if c.Reporting.RunsDir == "" {
		return fmt.Errorf("reporting.runs_dir is required")
	}
	if c.Network.MTU <= 0 {
		return fmt.Errorf("network.mtu must be positive")
	}
	return nil
}
