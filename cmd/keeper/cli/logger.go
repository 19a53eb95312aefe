// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger on stderr for CLI
// commands. A terminal gets slog.TextHandler; a pipe or file (cron,
// systemd, backup scripts) gets slog.JSONHandler so the lines are
// machine-parseable.
func NewCommandLogger(level slog.Level) *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

func newLogger(w io.Writer, terminal bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if terminal {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// LogFlags holds the logging flags every command accepts.
type LogFlags struct {
	Verbose bool
}

// AddFlags registers --verbose on flagSet.
func (f *LogFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVarP(&f.Verbose, "verbose", "v", false, "log debug detail")
}

// Level returns the slog level selected by the flags.
func (f *LogFlags) Level() slog.Level {
	if f.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
