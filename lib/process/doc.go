// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the entrypoint error handler for keeper
// binaries: the one place outside the CLI that writes raw text to
// stderr, used when a structured logger may not exist yet.
package process
