// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Network", cfg.Network, "mainnet"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"RPC.Timeout", cfg.RPC.Timeout, 30 * time.Second},
		{"RPC.URL", cfg.RPC.URL, ""},
		{"Fund.Index", cfg.Fund.Index, uint32(0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	original := Config{
		DataDir:  "/tmp/test-fund",
		Network:  "testnet",
		LogLevel: "debug",
		LogFile:  "/var/log/fund.log",
		RPC: RPCConfig{
			URL:      "http://localhost:9934",
			User:     "fund",
			Password: "secret",
			Timeout:  5 * time.Second,
		},
		Fund: FundConfig{Index: 3},
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", ConfigFileName)

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("network = \"testnet\"\nthis is not toml\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `# only a few keys
network = "dev"

[rpc]
url = "http://127.0.0.1:9933"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Network != "dev" {
		t.Errorf("Network = %q, want dev", cfg.Network)
	}
	if cfg.RPC.URL != "http://127.0.0.1:9933" {
		t.Errorf("RPC.URL = %q", cfg.RPC.URL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
	if cfg.RPC.Timeout != 30*time.Second {
		t.Errorf("RPC.Timeout = %v, want default 30s", cfg.RPC.Timeout)
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := "network = \"testnet\"\nfuture_option = true\n\n[extra]\nkey = 1\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want testnet", cfg.Network)
	}
}

func TestLoadConfigDurationString(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("[rpc]\ntimeout = \"1m30s\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RPC.Timeout != 90*time.Second {
		t.Errorf("RPC.Timeout = %v, want 1m30s", cfg.RPC.Timeout)
	}
}

func TestSaveConfig_OutputContainsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# fundctl configuration") {
		t.Errorf("missing header, got:\n%s", data)
	}
	for _, key := range []string{"datadir", "network", "loglevel", "[rpc]", "[fund]"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("output missing %q", key)
		}
	}
}

func TestLoadConfig_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("network = \"dev\"\n"), 0000); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Errorf("unreadable file reported as not found: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"empty datadir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"bad network", func(c *Config) { c.Network = "regtest" }, ErrInvalidNetwork},
		{"empty network", func(c *Config) { c.Network = "" }, ErrInvalidNetwork},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"bad rpc scheme", func(c *Config) { c.RPC.URL = "ftp://node:9933" }, ErrInvalidRPC},
		{"rpc url and domain", func(c *Config) {
			c.RPC.URL = "http://node:9933"
			c.RPC.Domain = "fund.example"
		}, ErrInvalidRPC},
		{"negative timeout", func(c *Config) { c.RPC.Timeout = -time.Second }, ErrInvalidRPC},
		{"bad upstream", func(c *Config) { c.RPC.Upstream = "8.8.8.8" }, ErrInvalidRPC},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateConfigValidNetworks(t *testing.T) {
	for _, network := range []string{"mainnet", "testnet", "dev"} {
		cfg := DefaultConfig()
		cfg.Network = network
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("network %q: %v", network, err)
		}
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"DEBUG", "Info", "WARN", "error"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("level %q: %v", level, err)
		}
	}
}

func TestValidateConfig_RPCVariants(t *testing.T) {
	tests := []RPCConfig{
		{URL: "http://localhost:9933"},
		{URL: "https://node.example:443", User: "u", Password: "p"},
		{Domain: "fund.example"},
		{Domain: "fund.example", DNSSEC: true, Upstream: "1.1.1.1:53"},
	}
	for _, rpc := range tests {
		cfg := DefaultConfig()
		cfg.RPC = rpc
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("%+v: %v", rpc, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.fundctl")
	want := filepath.Join("/home/user/.fundctl", "config.toml")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConfigPath_WithTrailingSlash(t *testing.T) {
	got := ConfigPath("/home/user/.fundctl/")
	want := filepath.Join("/home/user/.fundctl", "config.toml")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDefaultDataDir_EndsWith_DotFundctl(t *testing.T) {
	if got := DefaultDataDir(); filepath.Base(got) != ".fundctl" {
		t.Errorf("DefaultDataDir() = %q, want suffix .fundctl", got)
	}
}
