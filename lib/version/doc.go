// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build identity of the keeper binary.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit]: short git SHA of the build
//   - [BuildTime]: UTC timestamp of the build
//   - [Version]: semantic version string (set manually for releases)
//
// When GitCommit is not injected, [Get] falls back to the VCS stamp the
// Go toolchain embeds in module builds, so `go install` binaries still
// identify their revision.
package version
