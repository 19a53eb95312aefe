// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for keeper packages.
//
// [SocketDir] creates a short temporary directory in /tmp for Unix
// domain sockets, whose paths are limited to 108 bytes (sun_path in
// sockaddr_un). t.TempDir() paths can exceed that.
//
// [RequireReceive] and [Eventually] wrap the timeout safety valve
// (select with a time.After fallback) so individual tests do not need
// direct wall-clock waits. Timed logic under test uses
// clock.FakeClock; these helpers only bound how long a test may hang.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
