// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// keeper is the operator CLI and supervisor for a long-running game
// server reachable over RCON.
//
// Subcommands:
//
//	keeper rcon [flags] <command...>   run one console command and print the reply
//	keeper notify [flags]              broadcast a message (and optionally save)
//	keeper health [flags]              evaluate server health once
//	keeper supervise [flags]           keep the server running
//	keeper status [flags]              show the supervisor's last snapshot
//	keeper version                     print build information
//
// Configuration is one YAML file named by --config or the
// KEEPER_CONFIG environment variable. rcon and notify work without
// one; the other commands require it.
//
// # Exit codes
//
//	0  success
//	1  usage, configuration, or other error; unhealthy for `keeper health`
//	2  connection error: refused, timed out, unreachable (safe to retry)
//	3  authentication error: wrong password or dropped handshake (do not retry)
//	4  protocol error: malformed or short response (investigate)
package main
