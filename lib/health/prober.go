// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"time"

	"github.com/heptiolabs/healthcheck"
)

// DefaultProbeTimeout bounds a TCP probe when DialProber.Timeout is
// zero.
const DefaultProbeTimeout = 2 * time.Second

// DialProber probes a port by opening a TCP connection and closing it
// immediately.
type DialProber struct {
	Timeout time.Duration
}

// Probe returns nil if address accepts a TCP connection within the
// earlier of the prober's timeout and the context deadline.
func (p DialProber) Probe(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}
	return healthcheck.TCPDialCheck(address, timeout)()
}
