// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
	"github.com/bureau-foundation/keeper/lib/process"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	err := rootCommand(osEnvironment()).Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

// environment is everything a command reads from or writes to the
// outside world, so tests can substitute buffers and fixed values.
type environment struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time

	// newLogger builds the logger for interactive commands.
	newLogger func(level slog.Level) *slog.Logger

	// promptPassword reads a password without echo. Nil when stdin is
	// not a terminal.
	promptPassword func(prompt string) (string, error)
}

func osEnvironment() *environment {
	env := &environment{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		getenv:    os.Getenv,
		now:       time.Now,
		newLogger: cli.NewCommandLogger,
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		env.promptPassword = func(prompt string) (string, error) {
			io.WriteString(os.Stderr, prompt)
			password, err := term.ReadPassword(int(os.Stdin.Fd()))
			io.WriteString(os.Stderr, "\n")
			return string(password), err
		}
	}
	return env
}

func rootCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:        "keeper",
		Description: "Control plane for a long-running game server: console access over RCON,\nhealth checks, and an automatic restart supervisor.",
		Output:      env.stderr,
		Subcommands: []*cli.Command{
			rconCommand(env),
			notifyCommand(env),
			healthCommand(env),
			superviseCommand(env),
			statusCommand(env),
			versionCommand(env),
		},
		Examples: []cli.Example{
			{Description: "List online players", Command: "keeper rcon list"},
			{Description: "Warn players before a backup and flush the world", Command: "keeper notify --message 'Backup starting' --save"},
			{Description: "Run the supervisor", Command: "keeper supervise --config /etc/keeper/keeper.yaml"},
		},
	}
}
