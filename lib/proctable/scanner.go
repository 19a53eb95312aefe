// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proctable

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// Scanner matches processes whose command line contains Signature.
type Scanner struct {
	signature string
	self      int32
}

// NewScanner returns a Scanner for the given launch signature. The
// calling process is never matched, even if its own arguments contain
// the signature.
func NewScanner(signature string) (*Scanner, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, errors.New("launch signature is empty")
	}
	return &Scanner{signature: signature, self: int32(os.Getpid())}, nil
}

// Signature returns the configured launch signature.
func (s *Scanner) Signature() string { return s.signature }

// Match returns the PIDs of every live process whose command line
// contains the signature, in process-table order. Processes that exit
// while the table is being read are skipped. An empty result with a nil
// error means no server process is running.
func (s *Scanner) Match(ctx context.Context) ([]int32, error) {
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var matched []int32
	for _, candidate := range processes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if candidate.Pid == s.self {
			continue
		}
		commandLine, err := candidate.CmdlineWithContext(ctx)
		if err != nil {
			// Exited or unreadable (another user's process under
			// hidepid). Neither can be the server we launched.
			continue
		}
		if strings.Contains(commandLine, s.signature) {
			matched = append(matched, candidate.Pid)
		}
	}
	return matched, nil
}

// Kill sends SIGKILL to pid. A process that has already exited is not
// an error.
func Kill(pid int32) error {
	return Signal(pid, unix.SIGKILL)
}

// Signal delivers sig to pid. ESRCH (no such process) is not an error.
func Signal(pid int32, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	if err := unix.Kill(int(pid), sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("sending %v to pid %d: %w", sig, pid, err)
	}
	return nil
}

// Alive reports whether pid still exists. A process owned by another
// user (EPERM) exists. Zombies count as alive until reaped by their
// parent.
func Alive(pid int32) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(int(pid), 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
