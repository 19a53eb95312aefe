// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rcon implements the client side of the Source RCON protocol
// used by game servers to accept administrative commands over TCP.
//
// Every packet on the wire is framed as:
//
//	int32 length    (little-endian, counts the bytes that follow it)
//	int32 requestId (little-endian)
//	int32 type      (little-endian)
//	payload bytes
//	0x00 0x00
//
// A [Session] owns exactly one TCP connection. The caller dials, calls
// [Session.Authenticate] once, then issues commands with
// [Session.Execute]. Commands are strictly sequential: a session never
// writes a second request before it has consumed the response to the
// first. A server rejects a password by answering the auth request with
// requestId -1; the session closes itself and every later call fails
// without touching the socket.
//
// [Run] wraps the whole lifecycle for one-shot use: connect,
// authenticate, execute, close. Operator tooling and the restart
// supervisor both use Run so that no connection outlives one command.
//
// Failures are reported as one of three typed errors so callers can
// choose a policy with errors.As: [*ConnectionError] (safe to retry),
// [*AuthError] (do not retry), and [*ProtocolError] (the server sent
// something this client does not understand). The package itself never
// retries.
package rcon
