// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package health answers one question: is the game server healthy right
// now? It combines three read-only checks (is the process running, does
// the game port accept TCP connections, has the server log been written
// recently) into a single [Verdict].
//
// The [Monitor] holds no state between calls. Every [Monitor.Evaluate]
// recomputes the verdict from scratch, so the caller can poll it at any
// cadence. Each check is bounded by a timeout and never modifies the
// system: the log check reads file metadata only, the port check opens
// and immediately closes a TCP connection.
package health
