// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rcon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// DefaultTimeout bounds each dial, write, and read when Options.Timeout
// is zero.
const DefaultTimeout = 5 * time.Second

// Options configures a Session.
type Options struct {
	// Timeout bounds every blocking network operation. The effective
	// deadline is the earlier of this and the context deadline.
	Timeout time.Duration

	// Logger receives debug records for each packet exchanged. Nil
	// discards them.
	Logger *slog.Logger
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Session is one RCON connection carrying exactly one command. The
// session is closed once Execute returns, whatever the outcome, and on
// any earlier failure. Calls are serialized by a mutex, so a concurrent
// second Execute waits and then finds the session closed.
type Session struct {
	address string
	conn    net.Conn
	timeout time.Duration
	logger  *slog.Logger

	mu            sync.Mutex
	nextID        int32
	authenticated bool
	closed        bool
}

// Dial opens a TCP connection to address ("host:port"). The returned
// session is not yet authenticated.
func Dial(ctx context.Context, address string, options Options) (*Session, error) {
	dialer := net.Dialer{Timeout: options.timeout()}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Address: address, Err: err}
	}
	return newSession(conn, address, options), nil
}

func newSession(conn net.Conn, address string, options Options) *Session {
	return &Session{
		address: address,
		conn:    conn,
		timeout: options.timeout(),
		logger:  options.logger().With("address", address),
	}
}

// Authenticate sends the password and reads the server's single auth
// response. On any failure the session is closed. A rejected password
// yields an *AuthError wrapping ErrPasswordRejected, and nothing else
// is written to the connection.
func (s *Session) Authenticate(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &AuthError{Op: "authenticate", Err: ErrSessionClosed}
	}

	request := Packet{RequestID: s.allocateID(), Type: TypeAuth, Payload: []byte(password)}
	response, err := s.exchange(ctx, "authenticate", request)
	if err != nil {
		s.closeLocked()
		if handshakeDropped(err) {
			return &AuthError{Op: "authenticate", Err: err}
		}
		return err
	}

	if response.RequestID == AuthFailedID {
		s.closeLocked()
		s.logger.Debug("rcon password rejected")
		return &AuthError{Op: "authenticate", Err: ErrPasswordRejected}
	}
	if response.RequestID != request.RequestID {
		s.closeLocked()
		return &ProtocolError{
			Op:  "authenticate",
			Err: fmt.Errorf("auth response id %d does not match request id %d", response.RequestID, request.RequestID),
		}
	}
	if response.Type != TypeAuthResponse {
		s.closeLocked()
		return &ProtocolError{
			Op:  "authenticate",
			Err: fmt.Errorf("auth response has type %d, want %d", response.Type, TypeAuthResponse),
		}
	}

	s.authenticated = true
	return nil
}

// Execute sends one command and returns the payload of its single
// response packet: the bytes between the header and the terminators. An
// empty response is a valid result. The command must be non-empty,
// contain no NUL bytes, and fit within MaxCommandLength; violations are
// reported as a *ProtocolError before anything is written. The session
// is spent once Execute returns: later calls fail with ErrSessionClosed
// without touching the connection.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	if err := validateCommand(command); err != nil {
		return "", &ProtocolError{Op: "execute", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.closeLocked()

	if s.closed {
		return "", &ProtocolError{Op: "execute", Err: ErrSessionClosed}
	}
	if !s.authenticated {
		return "", &ProtocolError{Op: "execute", Err: ErrNotAuthenticated}
	}

	request := Packet{RequestID: s.allocateID(), Type: TypeExecCommand, Payload: []byte(command)}
	response, err := s.exchange(ctx, "execute", request)
	if err != nil {
		return "", err
	}

	if response.RequestID != request.RequestID {
		return "", &ProtocolError{
			Op:  "execute",
			Err: fmt.Errorf("response id %d does not match request id %d", response.RequestID, request.RequestID),
		}
	}
	if response.Type != TypeResponseValue && response.Type != TypeExecCommand {
		return "", &ProtocolError{
			Op:  "execute",
			Err: fmt.Errorf("unexpected response type %d", response.Type),
		}
	}

	return string(response.Payload), nil
}

// Close shuts down the write side, then the read side, then releases
// the descriptor. Closing an already closed session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.authenticated = false

	type halfCloser interface {
		CloseWrite() error
		CloseRead() error
	}
	if half, ok := s.conn.(halfCloser); ok {
		// Best effort: the peer may already have gone away.
		_ = half.CloseWrite()
		_ = half.CloseRead()
	}
	return s.conn.Close()
}

// allocateID returns the next request id. Ids are positive so they can
// never collide with AuthFailedID.
func (s *Session) allocateID() int32 {
	s.nextID++
	if s.nextID <= 0 {
		s.nextID = 1
	}
	return s.nextID
}

// exchange writes one request and reads exactly one response under a
// single deadline. Caller must hold s.mu.
func (s *Session) exchange(ctx context.Context, op string, request Packet) (Packet, error) {
	deadline := time.Now().Add(s.timeout)
	if contextDeadline, ok := ctx.Deadline(); ok && contextDeadline.Before(deadline) {
		deadline = contextDeadline
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return Packet{}, &ConnectionError{Op: op, Address: s.address, Err: err}
	}

	// Cancellation interrupts blocked I/O by moving the deadline into
	// the past.
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := WritePacket(s.conn, request); err != nil {
		return Packet{}, s.classify(ctx, op, fmt.Errorf("writing request %d: %w", request.RequestID, err))
	}
	s.logger.Debug("rcon request sent",
		"op", op,
		"request_id", request.RequestID,
		"type", request.Type,
		"payload_bytes", len(request.Payload),
	)

	response, err := ReadPacket(s.conn)
	if err != nil {
		return Packet{}, s.classify(ctx, op, err)
	}
	s.logger.Debug("rcon response received",
		"op", op,
		"request_id", response.RequestID,
		"type", response.Type,
		"payload_bytes", len(response.Payload),
	)
	return response, nil
}

// classify maps an I/O failure onto the error taxonomy. A stream that
// ends before a full packet is a short response (*ProtocolError);
// timeouts, cancellation, and socket errors are *ConnectionError.
func (s *Session) classify(ctx context.Context, op string, err error) error {
	var protocolError *ProtocolError
	if errors.As(err, &protocolError) {
		return err
	}
	if ctx.Err() != nil {
		return &ConnectionError{Op: op, Address: s.address, Err: fmt.Errorf("%w: %w", ctx.Err(), err)}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ProtocolError{Op: op, Err: fmt.Errorf("short response: %w", err)}
	}
	return &ConnectionError{Op: op, Address: s.address, Err: err}
}

func validateCommand(command string) error {
	if command == "" {
		return errors.New("command is empty")
	}
	if len(command) > MaxCommandLength {
		return fmt.Errorf("command is %d bytes, limit is %d", len(command), MaxCommandLength)
	}
	if bytes.IndexByte([]byte(command), 0) >= 0 {
		return errors.New("command contains a NUL byte")
	}
	return nil
}

// handshakeDropped reports whether an auth exchange failed because the
// server closed or reset the connection, as opposed to a timeout, a
// cancellation, or a malformed frame.
func handshakeDropped(err error) bool {
	if isTimeout(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var connectionError *ConnectionError
	return errors.As(err, &connectionError)
}

func isTimeout(err error) bool {
	var netError net.Error
	return errors.As(err, &netError) && netError.Timeout()
}
