// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rcon

import (
	"context"
)

// Run executes a single command on a fresh connection: dial,
// authenticate, execute, close. The connection is closed on every
// path, including failures. The returned error is one of
// *ConnectionError, *AuthError, or *ProtocolError.
func Run(ctx context.Context, address, password, command string, options Options) (string, error) {
	session, err := Dial(ctx, address, options)
	if err != nil {
		return "", err
	}
	defer session.Close()

	if err := session.Authenticate(ctx, password); err != nil {
		return "", err
	}
	return session.Execute(ctx, command)
}
