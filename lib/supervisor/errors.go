// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import "fmt"

// Restart phases reported by ProcessError.
const (
	PhaseStop  = "stop"
	PhaseStart = "start"
)

// ProcessError reports a restart that could not be carried out or
// confirmed. Phase is PhaseStop or PhaseStart.
type ProcessError struct {
	Phase string
	Err   error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s server: %v", e.Phase, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
