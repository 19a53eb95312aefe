// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rcon

import (
	"errors"
	"net"
	"sync"
	"testing"
)

// TestServer is an in-process RCON server bound to 127.0.0.1, used by
// tests in this and other packages to exercise real TCP sessions.
type TestServer struct {
	listener net.Listener
	password string
	handler  func(command string) string

	mu           sync.Mutex
	commands     []string
	authAttempts int
	connections  int
	open         map[net.Conn]struct{}

	waitGroup sync.WaitGroup
}

// NewTestServer starts a server that accepts password and answers each
// command with handler(command). A nil handler answers every command
// with an empty payload. The server is shut down by t.Cleanup.
//
// Rejected auth attempts are answered with requestId -1. Exec packets
// received on a connection that has not authenticated are recorded but
// never answered, so tests can assert that none arrived.
func NewTestServer(t *testing.T, password string, handler func(command string) string) *TestServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("start rcon test server: %v", err)
	}
	if handler == nil {
		handler = func(string) string { return "" }
	}

	server := &TestServer{
		listener: listener,
		password: password,
		handler:  handler,
		open:     make(map[net.Conn]struct{}),
	}
	server.waitGroup.Add(1)
	go server.acceptLoop()

	t.Cleanup(server.Close)
	return server
}

// Address returns the "host:port" the server listens on.
func (s *TestServer) Address() string {
	return s.listener.Addr().String()
}

// Commands returns every exec payload the server has received, in
// arrival order, including any sent without authentication.
func (s *TestServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// AuthAttempts returns the number of auth packets received.
func (s *TestServer) AuthAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authAttempts
}

// Connections returns the number of connections accepted.
func (s *TestServer) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

// Close stops accepting connections, closes any still open, and waits
// for their handlers to return.
func (s *TestServer) Close() {
	s.listener.Close()
	s.mu.Lock()
	for conn := range s.open {
		conn.Close()
	}
	s.mu.Unlock()
	s.waitGroup.Wait()
}

func (s *TestServer) acceptLoop() {
	defer s.waitGroup.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.mu.Lock()
		s.connections++
		s.open[conn] = struct{}{}
		s.mu.Unlock()

		s.waitGroup.Add(1)
		go s.serve(conn)
	}
}

func (s *TestServer) serve(conn net.Conn) {
	defer s.waitGroup.Done()
	defer func() {
		s.mu.Lock()
		delete(s.open, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	authenticated := false
	for {
		request, err := ReadPacket(conn)
		if err != nil {
			return
		}

		switch request.Type {
		case TypeAuth:
			s.mu.Lock()
			s.authAttempts++
			s.mu.Unlock()

			responseID := request.RequestID
			if string(request.Payload) == s.password {
				authenticated = true
			} else {
				authenticated = false
				responseID = AuthFailedID
			}
			if err := WritePacket(conn, Packet{RequestID: responseID, Type: TypeAuthResponse}); err != nil {
				return
			}

		case TypeExecCommand:
			command := string(request.Payload)
			s.mu.Lock()
			s.commands = append(s.commands, command)
			s.mu.Unlock()

			if !authenticated {
				continue
			}
			response := Packet{
				RequestID: request.RequestID,
				Type:      TypeResponseValue,
				Payload:   []byte(s.handler(command)),
			}
			if err := WritePacket(conn, response); err != nil {
				return
			}

		default:
			return
		}
	}
}
