// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
	"github.com/bureau-foundation/keeper/lib/version"
)

func versionCommand(env *environment) *cli.Command {
	var outputJSON bool

	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if outputJSON {
				return cli.WriteJSON(env.stdout, version.Get())
			}
			fmt.Fprintf(env.stdout, "keeper %s\n", version.Full())
			return nil
		},
	}
}
