// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that carry a specific process
// exit code.
type ExitCoder interface {
	ExitCode() int
}

// Fatal reports err on stderr and exits with its exit code.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes "error: err" to w and returns the exit code for err:
// the code of the first ExitCoder in its chain, or 1. An ExitCoder
// whose own message is empty has already been reported by the
// command and is not printed again.
func Report(w io.Writer, err error) int {
	code := 1
	var coder ExitCoder
	if errors.As(err, &coder) {
		code = coder.ExitCode()
	}
	if message := err.Error(); message != "" {
		fmt.Fprintf(w, "error: %s\n", message)
	}
	return code
}
