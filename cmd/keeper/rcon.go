// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
)

func rconCommand(env *environment) *cli.Command {
	var flags connectionFlags

	return &cli.Command{
		Name:    "rcon",
		Summary: "Run one console command and print the reply",
		Description: `Connect to the server's RCON port, authenticate, run one command, print
the reply, and disconnect. The command words are joined with spaces.

The password comes from the first of: --password, --password-file,
$KEEPER_RCON_PASSWORD, rcon.password or rcon.password_file in the
config, or a prompt when stdin is a terminal.`,
		Usage: "keeper rcon [flags] <command...>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("rcon", pflag.ContinueOnError)
			// Everything after the first command word belongs to the
			// game command, dashes included.
			flagSet.SetInterspersed(false)
			flags.addFlags(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "List online players", Command: "keeper rcon list"},
			{Description: "Retry while the server is still starting", Command: "keeper rcon --retries 5 --password-file ~/.rcon say hello"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("command required\n\nRun 'keeper rcon --help' for usage.")
			}
			command := strings.Join(args, " ")

			logger := env.newLogger(flags.Level()).With("command", "rcon")
			target, err := flags.resolve(env, logger)
			if err != nil {
				return err
			}

			reply, err := runOnce(ctx, target, command, logger)
			if err != nil {
				return rconFailure(err)
			}
			writeReply(env.stdout, reply)
			return nil
		},
	}
}

// writeReply prints a server reply, terminating it with a newline.
// Empty replies print nothing.
func writeReply(w io.Writer, reply string) {
	if reply == "" {
		return
	}
	io.WriteString(w, reply)
	if !strings.HasSuffix(reply, "\n") {
		io.WriteString(w, "\n")
	}
}
