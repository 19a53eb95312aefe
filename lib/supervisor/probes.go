// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"time"

	"github.com/heptiolabs/healthcheck"
)

// LivenessCheck fails when the poll loop has not completed a poll
// within livenessPolls poll intervals plus the longest a single poll,
// restart included, may take. A failing liveness probe means the
// supervisor itself is wedged.
func (s *Supervisor) LivenessCheck() healthcheck.Check {
	window := s.livenessWindow()
	return func() error {
		s.mu.Lock()
		lastPoll := s.lastPoll
		s.mu.Unlock()

		if lastPoll.IsZero() {
			return fmt.Errorf("no poll completed yet")
		}
		if since := s.clock.Now().Sub(lastPoll); since > window {
			return fmt.Errorf("last poll %v ago exceeds %v", since, window)
		}
		return nil
	}
}

// ReadinessCheck fails unless the most recent verdict was healthy. A
// failing readiness probe means the game server is down or degraded.
func (s *Supervisor) ReadinessCheck() healthcheck.Check {
	return func() error {
		s.mu.Lock()
		verdict, lastPoll := s.lastVerdict, s.lastPoll
		s.mu.Unlock()

		if lastPoll.IsZero() {
			return fmt.Errorf("no poll completed yet")
		}
		if !verdict.OK() {
			return fmt.Errorf("game server verdict is %v", verdict)
		}
		return nil
	}
}

func (s *Supervisor) livenessWindow() time.Duration {
	return livenessPolls*s.policy.PollInterval + s.policy.EvaluateTimeout + s.policy.maxRestart()
}
