// Package config loads the monitor daemon's configuration file: a TOML
// document mapping host names to their XBee 868 sensor's 64-bit hex
// address.
package config

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

var addressPattern = regexp.MustCompile(`^[0-9a-fA-F]{16}$`)

// Config is the monitor daemon's parsed configuration.
type Config struct {
	// Hosts maps a configured host name to its sensor's 16-hex-digit
	// source address, as written in the TOML [hosts] table.
	Hosts map[string]string `toml:"hosts"`

	// SocketPath overrides the default IPC socket location. Empty means
	// use the default.
	SocketPath string `toml:"socket_path"`
}

// Load reads and validates the TOML configuration file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("error while parsing configuration file %q: %w", path, err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Hosts == nil {
		return fmt.Errorf("hosts is missing")
	}
	for host, address := range cfg.Hosts {
		if !addressPattern.MatchString(address) {
			return fmt.Errorf("invalid XBee 868 sensor address for host %q: %q must be a 64-bit hex value", host, address)
		}
	}
	return nil
}
