// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so the restart
// supervisor's timing policy (poll interval, restart throttle, cooldown,
// penalty wait, drain timeout) can be tested without wall-clock sleeps.
//
// Production code holds a Clock field and uses it instead of calling
// time.Now, time.After, or time.Sleep directly:
//
//	s := supervisor.New(supervisor.Config{Clock: clock.Real(), ...})
//
// Tests use a FakeClock, which stands still until Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go s.Poll(ctx)
//	c.WaitForTimers(1)         // the poll is now blocked in a timed wait
//	c.Advance(5 * time.Second) // release it deterministically
//
// WaitForTimers closes the race between a goroutine registering a wait
// and the test advancing time.
package clock
