// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for keeper.
//
// Configuration is loaded from a single file specified by either the
// KEEPER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search, so the file an operator reads is the configuration keeper
// runs with.
//
// Durations are Go duration strings ("30s", "5m", "6h"). After loading,
// ${VAR} and ${VAR:-default} patterns are expanded in path, command,
// and password fields, so a secret can live in the environment:
//
//	rcon:
//	  password: ${KEEPER_RCON_PASSWORD}
//
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with one section per component
//   - [Default] -- returns a Config with every default filled in
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- rejects impossible combinations
//
// This package depends on no other keeper packages.
package config
