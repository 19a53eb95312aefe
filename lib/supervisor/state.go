// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"time"
)

// Status is the supervisor's position in the restart state machine.
type Status int

const (
	// Running is the steady state: the server is believed up and each
	// poll checks its health.
	Running Status = iota

	// Restarting is held while a stop/start cycle is in progress.
	Restarting

	// CoolingDown follows a confirmed restart. The budget is restored
	// if the cooldown window passes without a failure.
	CoolingDown

	// Exhausted means the budget is spent. The supervisor takes no
	// action until the penalty period passes.
	Exhausted
)

var statusNames = map[Status]string{
	Running:     "running",
	Restarting:  "restarting",
	CoolingDown: "cooling_down",
	Exhausted:   "exhausted",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown supervisor status %q", text)
}

// Statuses returns every status in declaration order.
func Statuses() []Status {
	return []Status{Running, Restarting, CoolingDown, Exhausted}
}

// State is the supervisor's restart bookkeeping. It is owned by the
// poll loop and changes only inside Poll.
type State struct {
	Status Status `json:"status"`

	// RestartCount is the number of restart attempts since the budget
	// was last restored.
	RestartCount int `json:"restart_count"`

	// LastRestart is when the most recent attempt began. Zero before
	// the first attempt.
	LastRestart time.Time `json:"last_restart"`

	// CooldownStarted is when the current cooldown window began. Zero
	// outside CoolingDown.
	CooldownStarted time.Time `json:"cooldown_started"`

	// ExhaustedAt is when the budget ran out. Zero outside Exhausted.
	ExhaustedAt time.Time `json:"exhausted_at"`
}
