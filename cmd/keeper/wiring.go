// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/keeper/lib/config"
	"github.com/bureau-foundation/keeper/lib/console"
	"github.com/bureau-foundation/keeper/lib/health"
	"github.com/bureau-foundation/keeper/lib/proctable"
	"github.com/bureau-foundation/keeper/lib/supervisor"
	"github.com/bureau-foundation/keeper/lib/tmux"
)

// newMonitor builds the health monitor and the process scanner it
// uses from cfg.
func newMonitor(cfg *config.Config, logger *slog.Logger) (*health.Monitor, *proctable.Scanner, error) {
	if err := cfg.ValidateMonitoring(); err != nil {
		return nil, nil, err
	}
	scanner, err := proctable.NewScanner(cfg.Server.Signature)
	if err != nil {
		return nil, nil, err
	}
	policy, err := health.ParseStaleLogPolicy(cfg.Health.StaleLogPolicy)
	if err != nil {
		return nil, nil, err
	}

	monitorConfig := health.Config{
		Processes:      scanner,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.GamePort,
		LogPath:        cfg.Server.LogPath,
		StaleThreshold: cfg.Health.StaleThreshold,
		StaleLogPolicy: policy,
		ScanTimeout:    cfg.Health.ScanTimeout,
		Logger:         logger,
	}
	if cfg.Health.PortProbe {
		monitorConfig.Prober = health.DialProber{Timeout: cfg.Health.ProbeTimeout}
	}
	return health.NewMonitor(monitorConfig), scanner, nil
}

// newChannel builds the command channel selected by console.mode.
func newChannel(cfg *config.Config, logger *slog.Logger) (console.CommandChannel, error) {
	switch cfg.Console.Mode {
	case config.ConsoleTmux:
		return &console.Session{
			Server:      tmux.NewServer(cfg.Console.TmuxSocket, ""),
			SessionName: cfg.Console.Session,
		}, nil
	case config.ConsoleRCON:
		password, err := cfg.RCON.ResolvePassword()
		if err != nil {
			return nil, err
		}
		return &console.RCON{
			Address:  cfg.RCON.Address(),
			Password: password,
			Timeout:  cfg.RCON.Timeout,
			Logger:   logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown console mode %q", cfg.Console.Mode)
	}
}

// newLauncher builds the launcher selected by launch.mode.
func newLauncher(cfg *config.Config, logger *slog.Logger) (supervisor.Launcher, error) {
	if err := cfg.ValidateLaunch(); err != nil {
		return nil, err
	}
	switch cfg.Launch.Mode {
	case config.LaunchTmux:
		return &supervisor.TmuxLauncher{
			Server:      tmux.NewServer(cfg.Launch.TmuxSocket, ""),
			SessionName: cfg.Launch.Session,
			Command:     cfg.Launch.Command,
			Logger:      logger,
		}, nil
	case config.LaunchExec:
		return &supervisor.ExecLauncher{
			Command: cfg.Launch.Command,
			Timeout: cfg.Launch.Timeout,
			Logger:  logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown launch mode %q", cfg.Launch.Mode)
	}
}

// policyFromConfig converts the supervisor section into a Policy.
func policyFromConfig(cfg *config.Config) supervisor.Policy {
	return supervisor.Policy{
		PollInterval:       cfg.Supervisor.PollInterval,
		MinRestartInterval: cfg.Supervisor.MinRestartInterval,
		MaxAttempts:        cfg.Supervisor.MaxAttempts,
		StartupGrace:       cfg.Supervisor.StartupGrace,
		ConfirmInterval:    cfg.Supervisor.ConfirmInterval,
		Cooldown:           cfg.Supervisor.Cooldown,
		ExhaustedPenalty:   cfg.Supervisor.ExhaustedPenalty,
		DrainTimeout:       cfg.Supervisor.DrainTimeout,
		CommandTimeout:     cfg.Supervisor.CommandTimeout,
		ScanTimeout:        cfg.Health.ScanTimeout,
		LaunchTimeout:      cfg.Launch.Timeout,
		EvaluateTimeout:    cfg.Health.ScanTimeout + cfg.Health.ProbeTimeout,
	}
}
