package network

import (
	"fmt"
	"time"
)

// Environment variables read by ResolveConfig.
const (
	EnvRPCURL  = "FUND_RPC_URL"
	EnvRPCUser = "FUND_RPC_USER"
	EnvRPCPass = "FUND_RPC_PASS"
)

// RPCConfig holds the connection parameters for a runtime node's JSON-RPC interface.
type RPCConfig struct {
	URL      string        `json:"url" toml:"url"`
	User     string        `json:"user" toml:"user"`
	Password string        `json:"password" toml:"password"`
	Network  string        `json:"network" toml:"-"`
	Timeout  time.Duration `json:"timeout" toml:"timeout"`
}

// NetworkPresets contains default RPC configurations for known networks.
// Mainnet is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"dev":     {URL: "http://localhost:9933", User: "fund", Password: "fund"},
	"testnet": {URL: "http://localhost:9934", User: "fund", Password: "fund"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (FUND_RPC_URL, FUND_RPC_USER, FUND_RPC_PASS)
//  3. Network presets (lowest priority, dev/testnet only)
//
// For mainnet, explicit configuration is required -- there is no preset.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if env != nil {
		if v, ok := env[EnvRPCURL]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env[EnvRPCUser]; ok && v != "" {
			result.User = v
		}
		if v, ok := env[EnvRPCPass]; ok && v != "" {
			result.Password = v
		}
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
		if flags.Timeout > 0 {
			result.Timeout = flags.Timeout
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set --rpc-url, %s, or config file)", network, EnvRPCURL)
	}

	return &result, nil
}
