// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validNetworks lists the accepted network names.
var validNetworks = map[string]bool{
	"mainnet": true,
	"testnet": true,
	"dev":     true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validNetworks[cfg.Network] {
		return ErrInvalidNetwork
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return validateRPC(cfg.RPC)
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}

func validateRPC(rpc RPCConfig) error {
	if rpc.URL != "" && rpc.Domain != "" {
		return fmt.Errorf("%w: url and domain are mutually exclusive", ErrInvalidRPC)
	}
	if rpc.URL != "" {
		u, err := url.Parse(rpc.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: url %q", ErrInvalidRPC, rpc.URL)
		}
	}
	if rpc.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidRPC)
	}
	if rpc.Upstream != "" {
		if err := validateAddr(rpc.Upstream); err != nil {
			return fmt.Errorf("%w: upstream: %w", ErrInvalidRPC, err)
		}
	}
	return nil
}
