// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tmux provides a typed interface to one tmux server. keeper
// uses tmux in two places: as a fallback console for servers without
// RCON (commands are typed into the server's pane with send-keys) and
// as a launch target that keeps the server attached to a detachable
// terminal.
//
// Every command goes through Server, which injects the -S socket flag,
// so an operation can never land on a different tmux server than the
// one configured.
package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Server represents a tmux server identified by its Unix socket path.
// An empty socket path targets tmux's default server for the current
// user, which is where operators usually run a hand-started game
// server.
type Server struct {
	socketPath string
	configFile string // passed as "-f <path>" on new-session; empty = tmux default
}

// NewServer returns a Server that targets the given socket path.
//
// configFile controls which configuration file tmux loads when the
// server starts (on the first new-session). Pass "/dev/null" to keep
// the user's ~/.tmux.conf out of the picture, as tests do.
func NewServer(socketPath, configFile string) *Server {
	return &Server{
		socketPath: socketPath,
		configFile: configFile,
	}
}

// SocketPath returns the Unix socket path that identifies this server.
func (s *Server) SocketPath() string {
	return s.socketPath
}

func (s *Server) baseArgs() []string {
	if s.socketPath == "" {
		return nil
	}
	return []string{"-S", s.socketPath}
}

// NewSession creates a detached session running command (the default
// shell when command is empty).
//
// -f is passed here because new-session may start the server; later
// commands never re-read the config.
func (s *Server) NewSession(ctx context.Context, sessionName string, command ...string) error {
	var args []string
	if s.configFile != "" {
		args = append(args, "-f", s.configFile)
	}
	args = append(args, s.baseArgs()...)
	args = append(args, "new-session", "-d", "-s", sessionName)
	args = append(args, command...)

	output, err := exec.CommandContext(ctx, "tmux", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux new-session %q: %w (%s)",
			sessionName, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// HasSession reports whether a session with the given name exists.
// Returns false if the server is not running.
func (s *Server) HasSession(ctx context.Context, sessionName string) bool {
	_, err := s.Run(ctx, "has-session", "-t", sessionName)
	return err == nil
}

// KillSession terminates a session. A session or server that is
// already gone is not an error.
func (s *Server) KillSession(ctx context.Context, sessionName string) error {
	_, err := s.Run(ctx, "kill-session", "-t", sessionName)
	if err != nil && isBenignAbsence(err) {
		return nil
	}
	return err
}

// KillServer terminates the server and every session on it. A server
// that is already stopped is not an error.
func (s *Server) KillServer(ctx context.Context) error {
	_, err := s.Run(ctx, "kill-server")
	if err != nil && (isBenignAbsence(err) || strings.Contains(err.Error(), "server exited unexpectedly")) {
		return nil
	}
	return err
}

// SendKeys types text into the session's active pane and presses
// Enter. The text is sent literally (-l), so words like "Enter" or
// "C-c" inside it are not interpreted as key names.
func (s *Server) SendKeys(ctx context.Context, sessionName, text string) error {
	if _, err := s.Run(ctx, "send-keys", "-t", sessionName, "-l", text); err != nil {
		return err
	}
	_, err := s.Run(ctx, "send-keys", "-t", sessionName, "Enter")
	return err
}

// PanePID returns the process ID of the command running in the
// session's active pane.
func (s *Server) PanePID(ctx context.Context, sessionName string) (int, error) {
	output, err := s.Run(ctx, "display-message", "-t", sessionName, "-p", "#{pane_pid}")
	if err != nil {
		return 0, fmt.Errorf("getting pane PID: %w", err)
	}

	pid, parseErr := strconv.Atoi(strings.TrimSpace(output))
	if parseErr != nil {
		return 0, fmt.Errorf("parsing pane PID %q: %w", strings.TrimSpace(output), parseErr)
	}
	return pid, nil
}

// Run executes a tmux subcommand on this server and returns its
// combined output. The socket flag is prepended automatically:
//
//	output, err := server.Run(ctx, "show-option", "-gv", "history-limit")
func (s *Server) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append(s.baseArgs(), args...)
	output, err := exec.CommandContext(ctx, "tmux", fullArgs...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w (%s)",
			strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// isBenignAbsence matches the tmux messages for a session or server
// that no longer exists.
func isBenignAbsence(err error) bool {
	message := err.Error()
	return strings.Contains(message, "can't find session") ||
		strings.Contains(message, "no server running") ||
		strings.Contains(message, "error connecting to")
}
