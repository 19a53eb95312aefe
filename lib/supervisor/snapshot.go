// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"os"
	"time"

	"github.com/bureau-foundation/keeper/lib/health"
	"github.com/bureau-foundation/keeper/lib/statefile"
)

// Snapshot is the supervisor's externally visible status, written to
// the state file after every poll and rendered by `keeper status`.
type Snapshot struct {
	State   State          `json:"state"`
	Verdict health.Verdict `json:"verdict"`

	// PolledAt is when the verdict was taken.
	PolledAt time.Time `json:"polled_at"`

	// NextReset is when the budget will be restored if nothing else
	// fails: the end of the cooldown window or of the exhausted
	// penalty. Zero in other states.
	NextReset time.Time `json:"next_reset"`

	PollInterval time.Duration `json:"poll_interval"`
	MaxAttempts  int           `json:"max_attempts"`

	// PID is the supervisor's process ID.
	PID int `json:"pid"`
}

// Stale reports whether the snapshot is older than livenessPolls poll
// intervals at now, which means the supervisor that wrote it has most
// likely stopped.
func (s Snapshot) Stale(now time.Time) bool {
	if s.PollInterval <= 0 {
		return true
	}
	return now.Sub(s.PolledAt) > livenessPolls*s.PollInterval
}

// Snapshot returns the current status.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		State:        s.state,
		Verdict:      s.lastVerdict,
		PolledAt:     s.lastPoll,
		PollInterval: s.policy.PollInterval,
		MaxAttempts:  s.policy.MaxAttempts,
		PID:          os.Getpid(),
	}
	switch s.state.Status {
	case CoolingDown:
		snapshot.NextReset = s.state.CooldownStarted.Add(s.policy.Cooldown)
	case Exhausted:
		snapshot.NextReset = s.state.ExhaustedAt.Add(s.policy.ExhaustedPenalty)
	}
	return snapshot
}

// ReadSnapshot reads a snapshot written by a supervisor. A missing file
// yields an error wrapping os.ErrNotExist.
func ReadSnapshot(path string) (Snapshot, error) {
	var snapshot Snapshot
	if err := statefile.Read(path, &snapshot); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// publish pushes the post-poll state to metrics and the state file.
// A failed write is logged; it never affects the restart policy.
func (s *Supervisor) publish(verdict health.Verdict) {
	snapshot := s.Snapshot()
	s.metrics.observePoll(verdict, snapshot.State, snapshot.PolledAt)

	if s.stateFile == "" {
		return
	}
	if err := statefile.Write(s.stateFile, snapshot); err != nil {
		s.logger.Warn("writing status snapshot failed",
			"state_file", s.stateFile,
			"error", err,
		)
	}
}
