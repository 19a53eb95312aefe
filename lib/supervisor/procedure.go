// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bureau-foundation/keeper/lib/console"
	"github.com/bureau-foundation/keeper/lib/health"
)

// stop brings the server down: stop command, drain wait, SIGKILL for
// survivors. A command error still waits out the drain, since the
// server may have received it, unless the error proves the command was
// never delivered. When the verdict already says the process is gone, the
// process table is not consulted and no command is sent.
func (s *Supervisor) stop(ctx context.Context, verdict health.Verdict) error {
	if verdict == health.ProcessDown {
		s.logger.Info("server process already gone, skipping stop")
		return nil
	}

	pids, err := s.match(ctx)
	if err != nil {
		return &ProcessError{Phase: PhaseStop, Err: fmt.Errorf("finding server processes: %w", err)}
	}
	if len(pids) == 0 {
		s.logger.Info("server process exited before stop, skipping stop")
		return nil
	}

	commandContext, cancel := context.WithTimeout(ctx, s.policy.CommandTimeout)
	reply, err := s.channel.Send(commandContext, StopCommand)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if console.NotDelivered(err) {
			// The server never saw the command and will not exit on its
			// own.
			s.logger.Warn("stop command not delivered, killing server", "error", err, "pids", pids)
			return s.killAll(pids)
		}
		s.logger.Warn("stop command reply failed, waiting for exit anyway", "error", err, "pids", pids)
	} else {
		s.logger.Info("stop command sent", "reply", reply, "pids", pids)
	}

	survivors, err := s.drain(ctx, pids)
	if err != nil {
		return err
	}
	if len(survivors) == 0 {
		return nil
	}
	s.logger.Warn("server did not exit within drain timeout, killing",
		"drain_timeout", s.policy.DrainTimeout,
		"pids", survivors,
	)
	return s.killAll(survivors)
}

// killAll sends SIGKILL to every pid.
func (s *Supervisor) killAll(pids []int32) error {
	var killErrors []error
	for _, pid := range pids {
		if err := s.kill(pid); err != nil {
			killErrors = append(killErrors, err)
		}
	}
	if err := errors.Join(killErrors...); err != nil {
		return &ProcessError{Phase: PhaseStop, Err: err}
	}
	return nil
}

// drain waits up to DrainTimeout for every pid in pids to leave the
// process table and returns those still present. A process matching
// the signature that was not in pids (a replacement started by an
// outside service manager) is not waited for.
func (s *Supervisor) drain(ctx context.Context, pids []int32) ([]int32, error) {
	deadline := s.clock.Now().Add(s.policy.DrainTimeout)
	survivors := pids
	for {
		current, err := s.match(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("process table scan failed during drain", "error", err)
		} else {
			survivors = slices.DeleteFunc(slices.Clone(survivors), func(pid int32) bool {
				return !slices.Contains(current, pid)
			})
		}
		if len(survivors) == 0 {
			s.logger.Info("server exited after stop command")
			return nil, nil
		}

		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			return survivors, nil
		}
		if err := s.wait(ctx, min(drainCheckInterval, remaining)); err != nil {
			return nil, err
		}
	}
}

// start launches the server and re-evaluates health every
// ConfirmInterval until it is healthy or StartupGrace runs out.
func (s *Supervisor) start(ctx context.Context) error {
	if err := s.launch(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ProcessError{Phase: PhaseStart, Err: err}
	}
	s.logger.Info("server launched, confirming health", "startup_grace", s.policy.StartupGrace)

	launched := s.clock.Now()
	deadline := launched.Add(s.policy.StartupGrace)
	for {
		if err := s.wait(ctx, s.policy.ConfirmInterval); err != nil {
			return err
		}
		verdict := s.monitor.Evaluate(ctx)
		if verdict.OK() {
			s.logger.Info("server healthy after launch", "elapsed", s.clock.Now().Sub(launched))
			return nil
		}
		if !s.clock.Now().Before(deadline) {
			return &ProcessError{
				Phase: PhaseStart,
				Err:   fmt.Errorf("not healthy within startup grace of %v (last verdict %v)", s.policy.StartupGrace, verdict),
			}
		}
		s.logger.Debug("waiting for server to become healthy", "verdict", verdict)
	}
}

func (s *Supervisor) launch(ctx context.Context) error {
	if s.policy.LaunchTimeout <= 0 {
		return s.launcher.Launch(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.policy.LaunchTimeout)
	defer cancel()
	return s.launcher.Launch(ctx)
}

func (s *Supervisor) match(ctx context.Context) ([]int32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.policy.ScanTimeout)
	defer cancel()
	return s.processes.Match(ctx)
}
