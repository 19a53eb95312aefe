// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package proctable finds the game server's processes in the OS process
// table by launch signature and delivers signals to them.
//
// A launch signature is a substring of the full command line that
// identifies the server, such as "-jar paper.jar" or the absolute path
// of a wrapper script. Matching on the command line rather than the
// executable name keeps unrelated java or python processes out of the
// result.
package proctable
