// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct {
	code    int
	message string
}

func (e *codedError) Error() string { return e.message }
func (e *codedError) ExitCode() int { return e.code }

func TestReport(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{"plain", errors.New("boom"), 1, "error: boom\n"},
		{"coded", &codedError{code: 3, message: "auth failed"}, 3, "error: auth failed\n"},
		{"wrapped coded", fmt.Errorf("rcon: %w", &codedError{code: 2, message: "refused"}), 2, "error: rcon: refused\n"},
		{"silent coded", &codedError{code: 1}, 1, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			if code := Report(&output, test.err); code != test.wantCode {
				t.Errorf("code = %d, want %d", code, test.wantCode)
			}
			if output.String() != test.wantOutput {
				t.Errorf("output = %q, want %q", output.String(), test.wantOutput)
			}
		})
	}
}
