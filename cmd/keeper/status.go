// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
	"github.com/bureau-foundation/keeper/lib/codec"
	"github.com/bureau-foundation/keeper/lib/proctable"
	"github.com/bureau-foundation/keeper/lib/supervisor"
)

func statusCommand(env *environment) *cli.Command {
	var configPath string
	var stateFile string
	var outputJSON bool
	var diagnose bool

	return &cli.Command{
		Name:    "status",
		Summary: "Show the supervisor's most recent status snapshot",
		Description: `Read the snapshot 'keeper supervise' writes to supervisor.state_file
after every poll and show the restart state, the last verdict, and when
the restart budget will be restored.

A snapshot older than three poll intervals means the supervisor is not
running or is stuck.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "configuration file (default $KEEPER_CONFIG)")
			flagSet.StringVar(&stateFile, "state-file", "", "snapshot path (overrides supervisor.state_file)")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			flagSet.BoolVar(&diagnose, "diagnose", false, "print the raw snapshot in CBOR diagnostic notation")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments %v", args)
			}
			if stateFile == "" {
				cfg, err := env.loadConfig(configPath, true)
				if err != nil {
					return err
				}
				stateFile = cfg.Supervisor.StateFile
			}
			if stateFile == "" {
				return fmt.Errorf("supervisor.state_file is empty: the supervisor writes no snapshot")
			}

			if diagnose {
				data, err := os.ReadFile(stateFile)
				if err != nil {
					return err
				}
				notation, err := codec.Diagnose(data)
				if err != nil {
					return err
				}
				fmt.Fprintln(env.stdout, notation)
				return nil
			}

			snapshot, err := supervisor.ReadSnapshot(stateFile)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no status snapshot at %s (is 'keeper supervise' running?)", stateFile)
			}
			if err != nil {
				return err
			}

			if outputJSON {
				return cli.WriteJSON(env.stdout, snapshot)
			}
			renderStatus(env.stdout, snapshot, env.now())
			return nil
		},
	}
}

func renderStatus(w io.Writer, snapshot supervisor.Snapshot, now time.Time) {
	styles := cli.NewStyles(w, cli.DefaultTheme)
	const labelWidth = 16
	line := func(label, value string, severity cli.Severity) {
		fmt.Fprintf(w, "  %s%s\n", styles.Label(label, labelWidth), styles.Value(value, severity))
	}
	ago := func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return fmt.Sprintf("%s (%s ago)", t.Local().Format(time.DateTime), now.Sub(t).Round(time.Second))
	}

	state := snapshot.State
	fmt.Fprintln(w, styles.Header("Supervisor status"))
	line("status", state.Status.String(), statusSeverity(state.Status))
	line("restarts", fmt.Sprintf("%d of %d", state.RestartCount, snapshot.MaxAttempts), cli.SeverityNormal)
	line("last restart", ago(state.LastRestart), cli.SeverityNormal)
	switch state.Status {
	case supervisor.CoolingDown:
		line("budget resets", snapshot.NextReset.Local().Format(time.DateTime)+" if healthy until then", cli.SeverityNormal)
	case supervisor.Exhausted:
		line("retrying after", snapshot.NextReset.Local().Format(time.DateTime), cli.SeverityWarning)
	}

	verdictSeverity := cli.SeverityGood
	if !snapshot.Verdict.OK() {
		verdictSeverity = cli.SeverityBad
	}
	line("last verdict", snapshot.Verdict.String(), verdictSeverity)
	line("polled", ago(snapshot.PolledAt), cli.SeverityNormal)
	line("supervisor pid", fmt.Sprint(snapshot.PID), cli.SeverityNormal)

	if snapshot.Stale(now) {
		reason := "the supervisor is stuck or has stopped"
		if snapshot.PID > 0 && !proctable.Alive(int32(snapshot.PID)) {
			reason = fmt.Sprintf("supervisor pid %d is not running", snapshot.PID)
		}
		fmt.Fprintf(w, "\n%s\n", styles.Value("snapshot is stale: "+reason, cli.SeverityWarning))
	}
}

func statusSeverity(status supervisor.Status) cli.Severity {
	switch status {
	case supervisor.Running:
		return cli.SeverityGood
	case supervisor.Restarting, supervisor.CoolingDown:
		return cli.SeverityWarning
	default:
		return cli.SeverityBad
	}
}
