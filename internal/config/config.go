// Package config provides HCL configuration handling for ufwatch.
// Everything has a working default; a config file only overrides.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the full configuration surface of the monitor.
type Config struct {
	// Journal block selects the external line source.
	Journal *JournalConfig `hcl:"journal,block"`

	// Docker block selects the network metadata source.
	Docker *DockerConfig `hcl:"docker,block"`

	// Marker overrides the log marker the parser matches on. Empty
	// selects the built-in "[UFW BLOCK]".
	Marker string `hcl:"marker,optional"`

	// Output settings.
	Format string `hcl:"format,optional"` // kv, toml or json

	// Logging settings.
	LogLevel string `hcl:"log_level,optional"` // debug, info, warn, error
	LogJSON  bool   `hcl:"log_json,optional"`

	// MetricsAddr enables the Prometheus listener when non-empty,
	// e.g. "127.0.0.1:9155".
	MetricsAddr string `hcl:"metrics_addr,optional"`
}

// JournalConfig configures the journalctl invocation.
type JournalConfig struct {
	Command string   `hcl:"command,optional"`
	Args    []string `hcl:"args,optional"`
}

// DockerConfig configures the docker CLI invocation and the snapshot
// refresh policy.
type DockerConfig struct {
	Command string   `hcl:"command,optional"`
	Args    []string `hcl:"args,optional"`

	// SnapshotTTL bounds snapshot staleness. "0s" reloads per event.
	SnapshotTTL string `hcl:"snapshot_ttl,optional"`

	// LoadTimeout bounds one CLI invocation.
	LoadTimeout string `hcl:"load_timeout,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Journal: &JournalConfig{
			Command: "journalctl",
			Args:    []string{"-f", "-o", "cat"},
		},
		Docker: &DockerConfig{
			Command:     "docker",
			Args:        []string{"network", "ls", "--format", "{{json .}}"},
			SnapshotTTL: "10s",
			LoadTimeout: "5s",
		},
		Format:   "kv",
		LogLevel: "info",
	}
}

// Load reads an HCL config file and validates it. Blocks or attributes
// missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores defaults for blocks or attributes a config
// file overrode with a partial block.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Journal == nil {
		c.Journal = def.Journal
	}
	if c.Docker == nil {
		c.Docker = def.Docker
	}
	if c.Journal.Command == "" {
		c.Journal.Command = def.Journal.Command
		if c.Journal.Args == nil {
			c.Journal.Args = def.Journal.Args
		}
	}
	if c.Docker.Command == "" {
		c.Docker.Command = def.Docker.Command
		if c.Docker.Args == nil {
			c.Docker.Args = def.Docker.Args
		}
	}
	if c.Docker.SnapshotTTL == "" {
		c.Docker.SnapshotTTL = def.Docker.SnapshotTTL
	}
	if c.Docker.LoadTimeout == "" {
		c.Docker.LoadTimeout = def.Docker.LoadTimeout
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate checks durations, the format enum and the log level.
func (c *Config) Validate() error {
	if _, err := c.SnapshotTTL(); err != nil {
		return err
	}
	if _, err := c.LoadTimeout(); err != nil {
		return err
	}
	switch c.Format {
	case "", "kv", "toml", "json":
	default:
		return fmt.Errorf("invalid format %q", c.Format)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// SnapshotTTL parses the configured snapshot TTL.
func (c *Config) SnapshotTTL() (time.Duration, error) {
	return parseDuration("snapshot_ttl", c.Docker.SnapshotTTL, 10*time.Second)
}

// LoadTimeout parses the configured snapshot load timeout.
func (c *Config) LoadTimeout() (time.Duration, error) {
	return parseDuration("load_timeout", c.Docker.LoadTimeout, 5*time.Second)
}

func parseDuration(name, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, raw)
	}
	return d, nil
}
