// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// Exit codes shared by every keeper command. Scripts branch on these:
// a connection failure is worth retrying, an authentication failure
// is not.
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitConnection = 2
	ExitAuth       = 3
	ExitProtocol   = 4
)

// ExitError makes the process exit with Code. When Err is nil the
// command has already written its own output (e.g. `keeper health`
// reporting an unhealthy server) and main prints nothing more.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the exit code. main checks for this method on
// returned errors.
func (e *ExitError) ExitCode() int {
	return e.Code
}
