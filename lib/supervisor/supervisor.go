// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/keeper/lib/clock"
	"github.com/bureau-foundation/keeper/lib/console"
	"github.com/bureau-foundation/keeper/lib/health"
	"github.com/bureau-foundation/keeper/lib/proctable"
)

// StopCommand is the console command that asks the server to save and
// shut down.
const StopCommand = "stop"

// Monitor produces a health verdict. Implemented by health.Monitor.
type Monitor interface {
	Evaluate(ctx context.Context) health.Verdict
}

// ProcessTable finds the server's processes. Implemented by
// proctable.Scanner.
type ProcessTable interface {
	Match(ctx context.Context) ([]int32, error)
}

// Launcher starts the server. Implemented by ExecLauncher and
// TmuxLauncher.
type Launcher interface {
	Launch(ctx context.Context) error
}

// Policy holds the timing and budget parameters of the restart policy.
type Policy struct {
	// PollInterval is the time between health evaluations.
	PollInterval time.Duration

	// MinRestartInterval is the minimum time between the start of two
	// restart attempts.
	MinRestartInterval time.Duration

	// MaxAttempts is the restart budget.
	MaxAttempts int

	// StartupGrace bounds how long a restart may take to become
	// healthy; ConfirmInterval is the spacing of the checks inside it.
	StartupGrace    time.Duration
	ConfirmInterval time.Duration

	// Cooldown is the failure-free window that restores the budget
	// after a confirmed restart.
	Cooldown time.Duration

	// ExhaustedPenalty is how long the supervisor stays hands-off
	// once the budget is spent. Must exceed Cooldown.
	ExhaustedPenalty time.Duration

	// DrainTimeout bounds the wait for the server to exit after the
	// stop command, before SIGKILL.
	DrainTimeout time.Duration

	// CommandTimeout bounds delivery of the stop command.
	CommandTimeout time.Duration

	// ScanTimeout bounds each process-table scan during stop.
	ScanTimeout time.Duration

	// LaunchTimeout bounds Launcher.Launch. Zero leaves the launch
	// bounded only by the launcher itself.
	LaunchTimeout time.Duration

	// EvaluateTimeout is the longest one Monitor.Evaluate may take (a
	// process scan plus a port probe). It only sizes the liveness
	// window; zero means ScanTimeout.
	EvaluateTimeout time.Duration
}

// maxRestart is the longest one restart may hold up the poll loop:
// the pre-stop scan, the stop command, a drain whose last scan may
// overrun, the launch, and a confirm loop whose last check may start
// just before the grace runs out.
func (p Policy) maxRestart() time.Duration {
	return p.ScanTimeout + p.CommandTimeout +
		p.DrainTimeout + drainCheckInterval + p.ScanTimeout +
		p.LaunchTimeout +
		p.StartupGrace + p.ConfirmInterval + p.EvaluateTimeout
}

// drainCheckInterval is the spacing of process-table checks while
// waiting for the server to exit.
const drainCheckInterval = time.Second

// livenessPolls is how many poll intervals may pass without a poll
// before the liveness probe fails.
const livenessPolls = 3

// Config wires a Supervisor to its collaborators.
type Config struct {
	Monitor   Monitor
	Processes ProcessTable
	Channel   console.CommandChannel
	Launcher  Launcher
	Policy    Policy

	// Kill delivers SIGKILL to a survivor of the drain. Defaults to
	// proctable.Kill.
	Kill func(pid int32) error

	// StateFile receives a Snapshot after every poll. Empty disables
	// the snapshot.
	StateFile string

	// Metrics may be nil.
	Metrics *Metrics

	Clock  clock.Clock
	Logger *slog.Logger
}

// Supervisor runs the restart policy. Poll and Run must be called from
// one goroutine; State, Snapshot, and the probe checks are safe to call
// from any goroutine.
type Supervisor struct {
	monitor   Monitor
	processes ProcessTable
	channel   console.CommandChannel
	launcher  Launcher
	policy    Policy
	kill      func(pid int32) error
	stateFile string
	metrics   *Metrics
	clock     clock.Clock
	logger    *slog.Logger

	mu          sync.Mutex
	state       State
	lastVerdict health.Verdict
	lastPoll    time.Time
}

// New validates config and returns a Supervisor in the Running state
// with a full restart budget.
func New(config Config) (*Supervisor, error) {
	var errs []error
	if config.Monitor == nil {
		errs = append(errs, errors.New("supervisor: Monitor is required"))
	}
	if config.Processes == nil {
		errs = append(errs, errors.New("supervisor: Processes is required"))
	}
	if config.Channel == nil {
		errs = append(errs, errors.New("supervisor: Channel is required"))
	}
	if config.Launcher == nil {
		errs = append(errs, errors.New("supervisor: Launcher is required"))
	}
	policy := config.Policy
	if policy.PollInterval <= 0 {
		errs = append(errs, errors.New("supervisor: PollInterval must be positive"))
	}
	if policy.MaxAttempts < 1 {
		errs = append(errs, errors.New("supervisor: MaxAttempts must be at least 1"))
	}
	if policy.ConfirmInterval <= 0 || policy.StartupGrace < policy.ConfirmInterval {
		errs = append(errs, errors.New("supervisor: ConfirmInterval must be positive and no longer than StartupGrace"))
	}
	if policy.ExhaustedPenalty <= policy.Cooldown {
		errs = append(errs, errors.New("supervisor: ExhaustedPenalty must be longer than Cooldown"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if policy.ScanTimeout <= 0 {
		policy.ScanTimeout = health.DefaultScanTimeout
	}
	if policy.EvaluateTimeout <= 0 {
		policy.EvaluateTimeout = policy.ScanTimeout
	}

	supervisor := &Supervisor{
		monitor:   config.Monitor,
		processes: config.Processes,
		channel:   config.Channel,
		launcher:  config.Launcher,
		policy:    policy,
		kill:      config.Kill,
		stateFile: config.StateFile,
		metrics:   config.Metrics,
		clock:     config.Clock,
		logger:    config.Logger,
	}
	if supervisor.kill == nil {
		supervisor.kill = proctable.Kill
	}
	if supervisor.clock == nil {
		supervisor.clock = clock.Real()
	}
	if supervisor.logger == nil {
		supervisor.logger = slog.New(slog.DiscardHandler)
	}
	return supervisor, nil
}

// State returns a copy of the current restart bookkeeping.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run polls immediately, then once per PollInterval, until ctx is
// cancelled. It returns nil on cancellation. Restart failures are
// logged and absorbed into the state machine; Run never gives up on
// its own.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("supervisor started",
		"poll_interval", s.policy.PollInterval,
		"max_attempts", s.policy.MaxAttempts,
		"pid", os.Getpid(),
	)
	for {
		s.Poll(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("supervisor stopping", "status", s.State().Status)
			return nil
		case <-s.clock.After(s.policy.PollInterval):
		}
	}
}

// Poll performs one evaluate-decide-act cycle. It returns a
// *ProcessError when a restart attempt failed, the context error when
// cancellation interrupted a restart, and nil otherwise. The error has
// already been logged.
func (s *Supervisor) Poll(ctx context.Context) error {
	verdict := s.monitor.Evaluate(ctx)
	now := s.clock.Now()

	s.mu.Lock()
	s.lastVerdict = verdict
	s.lastPoll = now
	s.mu.Unlock()

	err := s.decide(ctx, verdict, now)
	s.publish(verdict)
	return err
}

// decide applies one verdict to the state machine and carries out the
// resulting action.
func (s *Supervisor) decide(ctx context.Context, verdict health.Verdict, now time.Time) error {
	state := s.State()

	switch state.Status {
	case Exhausted:
		if now.Sub(state.ExhaustedAt) < s.policy.ExhaustedPenalty {
			s.logger.Debug("restart budget exhausted, waiting out penalty",
				"verdict", verdict,
				"penalty_remaining", s.policy.ExhaustedPenalty-now.Sub(state.ExhaustedAt),
			)
			return nil
		}
		s.logger.Info("exhausted penalty elapsed, restart budget restored",
			"restart_count", state.RestartCount,
		)
		state = State{Status: Running, LastRestart: state.LastRestart}
		s.setState(state)

	case CoolingDown:
		if verdict.OK() {
			if now.Sub(state.CooldownStarted) >= s.policy.Cooldown {
				s.logger.Info("cooldown completed, restart budget restored",
					"restart_count", state.RestartCount,
				)
				state = State{Status: Running, LastRestart: state.LastRestart}
				s.setState(state)
			}
			return nil
		}
		s.logger.Warn("server failed during cooldown",
			"verdict", verdict,
			"restart_count", state.RestartCount,
			"cooldown_elapsed", now.Sub(state.CooldownStarted),
		)
		state.Status = Running
		state.CooldownStarted = time.Time{}
		s.setState(state)

	case Restarting:
		// Only observable if a previous Poll was interrupted mid-restart.
		state.Status = Running
		s.setState(state)
	}

	if verdict.OK() {
		return nil
	}

	if state.RestartCount >= s.policy.MaxAttempts {
		s.logger.Error("restart budget exhausted, giving up until penalty elapses",
			"verdict", verdict,
			"restart_count", state.RestartCount,
			"max_attempts", s.policy.MaxAttempts,
			"penalty", s.policy.ExhaustedPenalty,
		)
		state.Status = Exhausted
		state.ExhaustedAt = now
		s.setState(state)
		return nil
	}

	if !state.LastRestart.IsZero() && now.Sub(state.LastRestart) <= s.policy.MinRestartInterval {
		s.logger.Warn("server unhealthy, restart throttled",
			"verdict", verdict,
			"since_last_restart", now.Sub(state.LastRestart),
			"min_restart_interval", s.policy.MinRestartInterval,
		)
		return nil
	}

	return s.restart(ctx, verdict, state, now)
}

// restart runs one stop/start cycle and records its outcome.
func (s *Supervisor) restart(ctx context.Context, verdict health.Verdict, state State, now time.Time) error {
	state.Status = Restarting
	state.RestartCount++
	state.LastRestart = now
	s.setState(state)

	logger := s.logger.With(
		"attempt", state.RestartCount,
		"max_attempts", s.policy.MaxAttempts,
	)
	logger.Warn("server unhealthy, restarting", "verdict", verdict)

	err := s.stop(ctx, verdict)
	if err == nil {
		err = s.start(ctx)
	}

	if err != nil {
		state.Status = Running
		s.setState(state)
		s.metrics.observeRestart(false)
		if ctx.Err() != nil {
			logger.Info("restart interrupted by shutdown", "error", err)
			return ctx.Err()
		}
		logger.Error("restart not confirmed", "error", err)
		return err
	}

	state.Status = CoolingDown
	state.CooldownStarted = s.clock.Now()
	s.setState(state)
	s.metrics.observeRestart(true)
	logger.Info("restart confirmed, cooling down", "cooldown", s.policy.Cooldown)
	return nil
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// wait blocks for d on the injected clock or until ctx is done.
func (s *Supervisor) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
		return nil
	}
}
