// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tmux

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/keeper/lib/testutil"
)

// NewTestServer creates an isolated tmux server for testing. The server:
//   - Uses a short /tmp path to stay within the 108-byte Unix socket limit
//   - Passes -f /dev/null so the user's ~/.tmux.conf is never loaded
//   - Creates a _guard session running "sleep infinity" to keep the server
//     alive (tmux exits when its last session ends)
//   - Registers t.Cleanup to kill the server when the test completes
//
// Tests must use the returned Server. A bare "tmux" command targets the
// user's default server, which may host the terminal running the tests.
func NewTestServer(t *testing.T) *Server {
	t.Helper()

	socketPath := filepath.Join(testutil.SocketDir(t), "tmux.sock")
	server := NewServer(socketPath, "/dev/null")

	if err := server.NewSession(context.Background(), "_guard", "sleep", "infinity"); err != nil {
		t.Fatalf("start tmux test server: %v", err)
	}

	t.Cleanup(func() {
		server.KillServer(context.Background())
	})

	return server
}
