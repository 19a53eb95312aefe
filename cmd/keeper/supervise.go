// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
	"github.com/bureau-foundation/keeper/lib/config"
	"github.com/bureau-foundation/keeper/lib/supervisor"
	"github.com/bureau-foundation/keeper/lib/version"
)

// shutdownTimeout bounds the metrics server's graceful shutdown.
const shutdownTimeout = 5 * time.Second

func superviseCommand(env *environment) *cli.Command {
	var configPath string
	var logFlags cli.LogFlags

	return &cli.Command{
		Name:    "supervise",
		Summary: "Keep the server running, restarting it when unhealthy",
		Description: `Evaluate server health every supervisor.poll_interval and restart the
server when it is unhealthy: send "stop" through the console, wait for
the process to exit (SIGKILL after supervisor.drain_timeout), run the
launch command, and wait for a healthy verdict.

At most supervisor.max_attempts restarts are attempted before the
supervisor backs off for supervisor.exhausted_penalty. A restart that
stays healthy for supervisor.cooldown restores the budget.

With metrics.listen set, serves /metrics (prometheus), /live (fails
when the poll loop is wedged), and /ready (fails while the server is
unhealthy). Runs until SIGINT or SIGTERM. Logs are JSON on stderr.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("supervise", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "configuration file (default $KEEPER_CONFIG)")
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
			logger := slog.New(slog.NewJSONHandler(env.stderr, &slog.HandlerOptions{Level: logFlags.Level()}))

			registry := prometheus.NewRegistry()
			supervisorInstance, err := newSupervisor(cfg, registry, logger)
			if err != nil {
				return err
			}

			if cfg.Metrics.Listen != "" {
				listener, err := net.Listen("tcp", cfg.Metrics.Listen)
				if err != nil {
					return fmt.Errorf("metrics listener: %w", err)
				}
				server := &http.Server{
					Handler:           newMetricsHandler(registry, supervisorInstance),
					ReadHeaderTimeout: 10 * time.Second,
				}
				stopServer := serveMetrics(server, listener, logger)
				defer stopServer()
			}

			logger.Info("keeper supervise starting",
				"version", version.Info(),
				"signature", cfg.Server.Signature,
				"console_mode", cfg.Console.Mode,
				"launch_mode", cfg.Launch.Mode,
				"state_file", cfg.Supervisor.StateFile,
			)
			return supervisorInstance.Run(ctx)
		},
	}
}

// newSupervisor wires a Supervisor from cfg and registers its metrics
// with registry.
func newSupervisor(cfg *config.Config, registry *prometheus.Registry, logger *slog.Logger) (*supervisor.Supervisor, error) {
	monitor, scanner, err := newMonitor(cfg, logger.With("component", "health"))
	if err != nil {
		return nil, err
	}
	channel, err := newChannel(cfg, logger.With("component", "console"))
	if err != nil {
		return nil, err
	}
	launcher, err := newLauncher(cfg, logger.With("component", "launcher"))
	if err != nil {
		return nil, err
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return supervisor.New(supervisor.Config{
		Monitor:   monitor,
		Processes: scanner,
		Channel:   channel,
		Launcher:  launcher,
		Policy:    policyFromConfig(cfg),
		StateFile: cfg.Supervisor.StateFile,
		Metrics:   supervisor.NewMetrics(registry),
		Logger:    logger.With("component", "supervisor"),
	})
}

// newMetricsHandler serves /metrics from registry and /live and /ready
// from the supervisor's probe checks.
func newMetricsHandler(registry *prometheus.Registry, supervisorInstance *supervisor.Supervisor) http.Handler {
	probes := healthcheck.NewMetricsHandler(registry, "keeper")
	probes.AddLivenessCheck("poll-loop", supervisorInstance.LivenessCheck())
	probes.AddReadinessCheck("game-server", supervisorInstance.ReadinessCheck())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.Handle("/live", probes)
	mux.Handle("/ready", probes)
	return mux
}

// serveMetrics serves on listener in the background and returns a
// function that shuts the server down.
func serveMetrics(server *http.Server, listener net.Listener, logger *slog.Logger) func() {
	logger.Info("metrics endpoint listening", "address", listener.Addr().String())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("metrics endpoint shutdown", "error", err)
		}
		<-done
	}
}
