// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the fundctl configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the configuration file inside the data directory.
const ConfigFileName = "config.toml"

const header = "# fundctl configuration\n\n"

// Config is the on-disk configuration.
type Config struct {
	DataDir  string `toml:"datadir"`
	Network  string `toml:"network"`
	LogLevel string `toml:"loglevel"`
	LogFile  string `toml:"logfile"`

	RPC  RPCConfig  `toml:"rpc"`
	Fund FundConfig `toml:"fund"`
}

// RPCConfig locates the runtime node. An empty URL with an empty Domain
// means the fund runs offline.
type RPCConfig struct {
	URL      string        `toml:"url"`
	User     string        `toml:"user"`
	Password string        `toml:"password"`
	Timeout  time.Duration `toml:"timeout"`

	// Domain, when set, is resolved through _fundrpc._tcp SRV records.
	Domain   string `toml:"domain"`
	DNSSEC   bool   `toml:"dnssec"`
	Upstream string `toml:"upstream"`
}

// FundConfig selects which fund the data directory operates.
type FundConfig struct {
	// Index picks the fund and dividend wallet addresses derived from the seed.
	Index uint32 `toml:"index"`
}

// DefaultDataDir returns ~/.fundctl, or .fundctl when the home directory
// cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fundctl"
	}
	return filepath.Join(home, ".fundctl")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Network:  "mainnet",
		LogLevel: "info",
		LogFile:  "",
		RPC: RPCConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// ConfigPath returns the configuration file path for dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), ConfigFileName)
}

// LoadConfig reads path over the defaults. Keys absent from the file keep
// their default values; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
