// Package config handles switchd daemon configuration.
//
// Configuration is loaded with overlay semantics:
//
//  1. Start with built-in defaults (embedded from default.toml)
//  2. Overlay with config file values (if the file exists)
//  3. CLI flags and environment variables override at runtime
//     (handled by the CLI layer)
//
// A valid configuration is therefore always available, even with no
// config file on disk. The TOML decoder only sets fields present in
// the file, leaving unspecified fields at their defaults.
//
// If the config file exists but is invalid, Load returns an error
// rather than silently falling back to defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/frobware/go-switchd/logging"
)

//go:embed default.toml
var defaultConfigTOML string

// DefaultConfigPath is the default path to the switchd config file.
const DefaultConfigPath = "/etc/switchd/switchd.toml"

// Config is the top-level switchd configuration.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Manager  ManagerConfig  `toml:"manager"`
	Platform PlatformConfig `toml:"platform"`
	Server   ServerConfig   `toml:"server"`
}

// LoggingConfig controls logging behaviour.
type LoggingConfig struct {
	// Level is the log spec (e.g. "info" or "info,manager=debug").
	Level string `toml:"level"`
	// Format is the output format: "text" or "json".
	Format string `toml:"format"`
	// Components is an alternative way to give per-component levels.
	Components map[string]string `toml:"components"`
}

// ToSpec converts the LoggingConfig to a log spec string. Level takes
// precedence; otherwise a spec is assembled from Components.
func (c *LoggingConfig) ToSpec() string {
	if c.Level != "" {
		return c.Level
	}
	if len(c.Components) == 0 {
		return ""
	}

	parts := make([]string, 0, len(c.Components)+1)
	parts = append(parts, "info")
	for component, level := range c.Components {
		parts = append(parts, component+"="+level)
	}
	return strings.Join(parts, ",")
}

// Duration is a time.Duration that decodes from TOML strings such as
// "30m" or "1h30m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for the TOML
// decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// ManagerConfig controls lifecycle orchestration behaviour.
type ManagerConfig struct {
	// AllowReentrantWarmInit permits a warm-init begin while the
	// journal already has an open cycle for the device. The previous
	// cycle is closed as aborted. When false (the default), a
	// re-entrant begin is rejected.
	AllowReentrantWarmInit bool `toml:"allow_reentrant_warm_init"`

	// StaleCycleAfter is the age past which doctor reports an open
	// warm-init cycle as stale. Zero disables the check.
	StaleCycleAfter Duration `toml:"stale_cycle_after"`
}

// PlatformConfig controls the built-in software model platform.
type PlatformConfig struct {
	// SysfsRoot is where network interfaces are enumerated.
	SysfsRoot string `toml:"sysfs_root"`
	// CPUPortPrefix names the per-device CPU port interfaces; device
	// N is expected at {prefix}{N}.
	CPUPortPrefix string `toml:"cpu_port_prefix"`
}

// ServerConfig controls the daemon's listeners.
type ServerConfig struct {
	// TCPAddress additionally serves the API over TCP when set
	// (e.g. "127.0.0.1:7001"). Empty means unix socket only.
	TCPAddress string `toml:"tcp_address"`
}

// DefaultConfig returns the configuration from the embedded
// default.toml. This baseline is always available.
func DefaultConfig() Config {
	var cfg Config
	if _, err := toml.Decode(defaultConfigTOML, &cfg); err != nil {
		// Unreachable in practice: default.toml is embedded at build
		// time. Return a minimal safe config if it ever happens.
		return Config{
			Logging: LoggingConfig{Level: "info", Format: "text"},
			Platform: PlatformConfig{
				SysfsRoot:     "/sys/class/net",
				CPUPortPrefix: "bf_pci",
			},
		}
	}
	return cfg
}

// Load reads configuration from a file path with overlay semantics.
//
// Behaviour:
//   - File missing: returns the default configuration (no error)
//   - File exists and valid: overlays file values onto defaults
//   - File exists but invalid: returns an error (fail fast)
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional.
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return err
	}
	if _, err := logging.ParseSpec(c.Logging.ToSpec()); err != nil {
		return err
	}
	return nil
}
