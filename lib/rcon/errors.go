// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rcon

import (
	"errors"
	"fmt"
)

// ErrPasswordRejected is wrapped by the AuthError returned when the
// server answers the auth request with requestId -1.
var ErrPasswordRejected = errors.New("password rejected by server")

// ErrSessionClosed is returned by calls on a session that was closed,
// either explicitly or after a failure.
var ErrSessionClosed = errors.New("session is closed")

// ErrNotAuthenticated is returned by Execute before a successful
// Authenticate.
var ErrNotAuthenticated = errors.New("session is not authenticated")

// ConnectionError reports a transport failure: connection refused,
// dial or I/O timeout, host unreachable, reset. Retrying may succeed.
type ConnectionError struct {
	Op      string
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rcon %s %s: %v", e.Op, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError reports that the session could not be authenticated: the
// password was rejected or the server dropped the connection during the
// handshake. Retrying with the same credentials will not help.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("rcon %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProtocolError reports a response that violates the framing rules, a
// mismatched request id or packet type, a response cut short, or a
// request rejected locally before it was sent.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rcon %s: protocol error: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
