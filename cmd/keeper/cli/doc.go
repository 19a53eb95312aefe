// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the keeper CLI.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. Commands are assembled into a tree in cmd/keeper/main.go
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and help output with examples.
//
// An unknown subcommand or flag gets a "did you mean" suggestion
// computed by Levenshtein distance (threshold: distance <= 3).
//
// [ExitError] carries a specific exit code back to main; the codes
// are the Exit* constants. [NewCommandLogger] builds the slog logger
// commands use, and [Theme] styles human-readable output with
// lipgloss.
package cli
