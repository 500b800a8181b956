// Package bootstrap loads the one-shot startup description of where the
// agent binds and how many workers it runs: a small YAML file read once
// at process start.
package bootstrap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the agent's startup configuration. It is loaded once and never
// mutated; runtime-mutable state lives in config.Store instead.
type Config struct {
	SettingsPath string       `yaml:"settings_path"`
	Frontend     FrontendConf `yaml:"frontend"`
	Workers      int          `yaml:"workers"`
	Sessions     SessionsConf `yaml:"sessions"`
	Engine       EngineConf   `yaml:"engine"`
}

// FrontendConf describes where the authenticated router socket binds.
type FrontendConf struct {
	SocketPath string   `yaml:"socket_path"`
	Endpoints  []string `yaml:"endpoints"`
}

// SessionsConf describes how many engine sessions to start at boot.
type SessionsConf struct {
	Clients int `yaml:"clients"`
	Servers int `yaml:"servers"`
}

// EngineConf carries opaque startup arguments passed through to the
// engine's StartClient/StartServer calls.
type EngineConf struct {
	Args map[string]string `yaml:"args"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields the Orchestrator asserts are non-empty.
func (c *Config) Validate() error {
	if c.SettingsPath == "" {
		return fmt.Errorf("settings_path is required")
	}
	if c.Frontend.SocketPath == "" {
		return fmt.Errorf("frontend.socket_path is required")
	}
	if c.Workers <= 0 {
		c.Workers = 0 // 0 signals "use hardware parallelism" to WorkerPool
	}
	return nil
}
