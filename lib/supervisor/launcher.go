// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/bureau-foundation/keeper/lib/tmux"
)

// ExecLauncher starts the server by running a command that returns
// once the server is on its way up, such as `systemctl start
// minecraft` or a wrapper script that backgrounds the server. The
// command must not be the server itself: Launch waits for it to exit.
type ExecLauncher struct {
	Command []string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Launch runs the command and waits for it, killing it after Timeout.
// A non-zero exit status is an error carrying the command's output.
func (l *ExecLauncher) Launch(ctx context.Context) error {
	if len(l.Command) == 0 {
		return errors.New("launch command is empty")
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	command := exec.CommandContext(ctx, l.Command[0], l.Command[1:]...)
	output, err := command.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return fmt.Errorf("launch %q: %w (%s)",
			strings.Join(l.Command, " "), err, strings.TrimSpace(string(output)))
	}
	if l.Logger != nil {
		l.Logger.Debug("launch command finished",
			"command", l.Command,
			"output", strings.TrimSpace(string(output)),
		)
	}
	return nil
}

// TmuxLauncher starts the server inside a detached tmux session, so an
// operator can attach to its console later. A leftover session with the
// same name (its server already dead) is killed first.
type TmuxLauncher struct {
	Server      *tmux.Server
	SessionName string
	Command     []string
	Logger      *slog.Logger
}

// Launch creates the session running Command.
func (l *TmuxLauncher) Launch(ctx context.Context) error {
	if len(l.Command) == 0 {
		return errors.New("launch command is empty")
	}
	if l.Server.HasSession(ctx, l.SessionName) {
		if err := l.Server.KillSession(ctx, l.SessionName); err != nil {
			return fmt.Errorf("removing stale session %q: %w", l.SessionName, err)
		}
	}
	if err := l.Server.NewSession(ctx, l.SessionName, l.Command...); err != nil {
		return err
	}

	if l.Logger != nil {
		pid, err := l.Server.PanePID(ctx, l.SessionName)
		if err != nil {
			l.Logger.Warn("server launched but pane PID unavailable",
				"session", l.SessionName,
				"error", err,
			)
			return nil
		}
		l.Logger.Info("server launched in tmux session",
			"session", l.SessionName,
			"pane_pid", pid,
		)
	}
	return nil
}
