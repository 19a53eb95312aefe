// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
)

func notifyCommand(env *environment) *cli.Command {
	var flags connectionFlags
	var message string
	var save bool

	return &cli.Command{
		Name:    "notify",
		Summary: "Broadcast a message to players, optionally saving the world",
		Description: `Broadcast a message with "say" and, with --save, flush the world to disk
with "save-all". Each command gets its own RCON connection, and the
first failure aborts the run.

Meant for backup and maintenance scripts: the exit codes match
'keeper rcon', so a script can abort when the server is unreachable.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("notify", pflag.ContinueOnError)
			flagSet.StringVarP(&message, "message", "m", "", "message to broadcast")
			flagSet.BoolVar(&save, "save", false, "run save-all after the message")
			flags.addFlags(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Before a backup", Command: "keeper notify --message 'Backup starting, expect lag' --save"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments %v (quote the message and pass it with --message)", args)
			}
			commands := notifyCommands(message, save)
			if len(commands) == 0 {
				return fmt.Errorf("nothing to do: pass --message and/or --save")
			}

			logger := env.newLogger(flags.Level()).With("command", "notify")
			target, err := flags.resolve(env, logger)
			if err != nil {
				return err
			}

			for _, command := range commands {
				reply, err := runOnce(ctx, target, command, logger)
				if err != nil {
					return rconFailure(fmt.Errorf("%s: %w", strings.Fields(command)[0], err))
				}
				logger.Info("console command sent", "console_command", command, "reply", reply)
				writeReply(env.stdout, reply)
			}
			return nil
		},
	}
}

// notifyCommands returns the console commands for a notify run, in
// order.
func notifyCommands(message string, save bool) []string {
	var commands []string
	if message = strings.TrimSpace(message); message != "" {
		commands = append(commands, "say "+message)
	}
	if save {
		commands = append(commands, "save-all")
	}
	return commands
}
