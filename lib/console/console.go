// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console delivers administrative commands to a running game
// server. Two transports satisfy [CommandChannel]: [RCON], which speaks
// the RCON protocol and returns the server's reply, and [Session],
// which types the command into the server's tmux pane for servers that
// run without RCON enabled.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/keeper/lib/rcon"
	"github.com/bureau-foundation/keeper/lib/tmux"
)

// CommandChannel sends one console command and returns whatever reply
// the transport can observe. Implementations open and release their
// resources within the call.
type CommandChannel interface {
	Send(ctx context.Context, command string) (string, error)
}

// RCON sends commands over a fresh RCON connection per call.
type RCON struct {
	Address  string
	Password string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Send runs command with rcon.Run. Errors are the rcon package's typed
// errors, unwrapped.
func (r *RCON) Send(ctx context.Context, command string) (string, error) {
	return rcon.Run(ctx, r.Address, r.Password, command, rcon.Options{
		Timeout: r.Timeout,
		Logger:  r.Logger,
	})
}

// Session types commands into a tmux session's active pane. The pane's
// output is not captured, so Send always returns an empty reply.
type Session struct {
	Server      *tmux.Server
	SessionName string
}

// ErrNoSession is returned when the target tmux session does not exist.
var ErrNoSession = errors.New("console session not found")

// Send delivers command followed by Enter.
func (s *Session) Send(ctx context.Context, command string) (string, error) {
	if !s.Server.HasSession(ctx, s.SessionName) {
		return "", fmt.Errorf("%w: %q", ErrNoSession, s.SessionName)
	}
	if err := s.Server.SendKeys(ctx, s.SessionName, command); err != nil {
		return "", fmt.Errorf("sending %q to session %q: %w", command, s.SessionName, err)
	}
	return "", nil
}

// NotDelivered reports whether err from Send proves the command never
// reached the server: the RCON dial or handshake failed, or the tmux
// session was missing. Any other error, a reply timeout in particular,
// leaves open whether the server acted on the command.
func NotDelivered(err error) bool {
	if errors.Is(err, ErrNoSession) {
		return true
	}
	var authError *rcon.AuthError
	if errors.As(err, &authError) {
		return true
	}
	var connectionError *rcon.ConnectionError
	return errors.As(err, &connectionError) && connectionError.Op == "dial"
}
