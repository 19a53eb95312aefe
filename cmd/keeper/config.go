// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/bureau-foundation/keeper/lib/config"
)

// loadConfig loads and validates the file named by path, falling back
// to KEEPER_CONFIG. Without either, required commands fail and the
// others get the defaults.
func (e *environment) loadConfig(path string, required bool) (*config.Config, error) {
	if path == "" {
		path = e.getenv(config.EnvironmentVariable)
	}
	if path == "" {
		if required {
			return nil, fmt.Errorf("no configuration: pass --config or set %s", config.EnvironmentVariable)
		}
		return config.Default(), nil
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
