// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
	"github.com/bureau-foundation/keeper/lib/config"
	"github.com/bureau-foundation/keeper/lib/health"
)

// healthReport is the output of `keeper health`.
type healthReport struct {
	Verdict   health.Verdict `json:"verdict"`
	Healthy   bool           `json:"healthy"`
	Signature string         `json:"signature"`
	LogPath   string         `json:"log_path"`

	// LogModified is the zero time when the log could not be read.
	LogModified time.Time `json:"log_modified"`
	PortProbed  bool      `json:"port_probed"`
	GameAddress string    `json:"game_address"`
	CheckedAt   time.Time `json:"checked_at"`
}

func healthCommand(env *environment) *cli.Command {
	var configPath string
	var outputJSON bool
	var logFlags cli.LogFlags

	return &cli.Command{
		Name:    "health",
		Summary: "Evaluate server health once",
		Description: `Run the health checks the supervisor runs on every poll and print the
verdict: healthy, process_down, port_unreachable, or log_stale.

Exits 0 when healthy and 1 otherwise, so it can back a cron job or a
service manager's health hook.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("health", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "configuration file (default $KEEPER_CONFIG)")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			logFlags.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments %v", args)
			}
			cfg, err := env.loadConfig(configPath, true)
			if err != nil {
				return err
			}
			logger := env.newLogger(logFlags.Level()).With("command", "health")
			monitor, _, err := newMonitor(cfg, logger)
			if err != nil {
				return err
			}

			report := checkHealth(ctx, cfg, monitor, env.now())
			if outputJSON {
				if err := cli.WriteJSON(env.stdout, report); err != nil {
					return err
				}
			} else {
				renderHealth(env.stdout, report, env.now())
			}
			if !report.Healthy {
				return &cli.ExitError{Code: cli.ExitFailure}
			}
			return nil
		},
	}
}

func checkHealth(ctx context.Context, cfg *config.Config, monitor *health.Monitor, now time.Time) healthReport {
	verdict := monitor.Evaluate(ctx)
	report := healthReport{
		Verdict:     verdict,
		Healthy:     verdict.OK(),
		Signature:   cfg.Server.Signature,
		LogPath:     cfg.Server.LogPath,
		PortProbed:  cfg.Health.PortProbe,
		GameAddress: cfg.Server.GameAddress(),
		CheckedAt:   now,
	}
	if info, err := os.Stat(cfg.Server.LogPath); err == nil {
		report.LogModified = info.ModTime()
	}
	return report
}

func renderHealth(w io.Writer, report healthReport, now time.Time) {
	styles := cli.NewStyles(w, cli.DefaultTheme)
	const labelWidth = 12

	severity := cli.SeverityGood
	if !report.Healthy {
		severity = cli.SeverityBad
	}

	fmt.Fprintln(w, styles.Header("Server health"))
	fmt.Fprintf(w, "  %s%s\n", styles.Label("verdict", labelWidth), styles.Value(report.Verdict.String(), severity))
	fmt.Fprintf(w, "  %s%s\n", styles.Label("signature", labelWidth), styles.Value(report.Signature, cli.SeverityNormal))

	logLine := report.LogPath + " (unreadable)"
	if !report.LogModified.IsZero() {
		logLine = fmt.Sprintf("%s (modified %s ago)", report.LogPath, now.Sub(report.LogModified).Round(time.Second))
	}
	fmt.Fprintf(w, "  %s%s\n", styles.Label("log", labelWidth), styles.Value(logLine, cli.SeverityNormal))

	portLine := "not probed"
	if report.PortProbed {
		portLine = report.GameAddress
	}
	fmt.Fprintf(w, "  %s%s\n", styles.Label("game port", labelWidth), styles.Value(portLine, cli.SeverityNormal))
}
