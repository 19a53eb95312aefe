// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor keeps a game server running. A [Supervisor] polls
// the health monitor on a fixed interval and, when the verdict is
// unhealthy, stops and restarts the server within a bounded restart
// budget.
//
// The restart policy is a small state machine:
//
//	Running ──unhealthy, budget left, not throttled──▶ Restarting
//	Running ──unhealthy, budget spent──────────────▶ Exhausted
//	Restarting ──start confirmed healthy───────────▶ CoolingDown
//	Restarting ──start not confirmed───────────────▶ Running
//	CoolingDown ──cooldown elapsed, no failure─────▶ Running (budget reset)
//	CoolingDown ──failure──────────────────────────▶ Running (same poll)
//	Exhausted ──penalty elapsed────────────────────▶ Running (budget reset)
//
// Every restart attempt, confirmed or not, spends one unit of the
// budget. The budget is restored only by an uninterrupted cooldown
// window or by sitting out the exhausted penalty, never by a single
// healthy check.
//
// A restart stops the server first: the "stop" console command goes
// out through a [console.CommandChannel], the supervisor waits for the
// matched processes to exit, and SIGKILLs whatever survives the drain
// timeout. A stop command that fails after it may have reached the
// server (a lost reply, a timeout) still gets the full drain; only an
// error proving non-delivery skips it. It then calls the [Launcher] and re-evaluates health until
// the startup grace period runs out.
//
// The supervisor runs no goroutines of its own. [Supervisor.Run] is a
// single cooperative loop, every wait goes through the injected
// clock.Clock, and cancelling the context interrupts any wait
// immediately. After each poll the supervisor publishes a [Snapshot]
// to its state file and updates its prometheus [Metrics].
package supervisor
