// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// testEnvironment captures output in buffers and reads variables from
// vars instead of the process environment.
type testEnvironment struct {
	*environment
	out  *bytes.Buffer
	err  *bytes.Buffer
	vars map[string]string
}

func newTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	test := &testEnvironment{
		out:  &bytes.Buffer{},
		err:  &bytes.Buffer{},
		vars: map[string]string{},
	}
	test.environment = &environment{
		stdout: test.out,
		stderr: test.err,
		getenv: func(name string) string { return test.vars[name] },
		now:    func() time.Time { return testNow },
		newLogger: func(level slog.Level) *slog.Logger {
			return slog.New(slog.NewTextHandler(test.err, &slog.HandlerOptions{Level: level}))
		},
	}
	return test
}

// run executes the keeper command tree with args.
func (e *testEnvironment) run(args ...string) error {
	return rootCommand(e.environment).Execute(context.Background(), args)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keeper.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func requireExitCode(t *testing.T, err error, want int) {
	t.Helper()
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) {
		t.Fatalf("error = %v (%T), want *cli.ExitError with code %d", err, err, want)
	}
	if exitError.Code != want {
		t.Fatalf("exit code = %d, want %d (error: %v)", exitError.Code, want, err)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	env := newTestEnvironment(t)
	err := env.run("helth")
	if err == nil || !strings.Contains(err.Error(), `did you mean "health"`) {
		t.Errorf("error = %v, want suggestion for health", err)
	}
}

func TestLoadConfigRequired(t *testing.T) {
	env := newTestEnvironment(t)
	if _, err := env.loadConfig("", true); err == nil {
		t.Fatal("loadConfig succeeded with no config and required=true")
	}
	cfg, err := env.loadConfig("", false)
	if err != nil {
		t.Fatalf("loadConfig(optional): %v", err)
	}
	if cfg.RCON.Port != 25575 {
		t.Errorf("optional config port = %d, want the default", cfg.RCON.Port)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	env := newTestEnvironment(t)
	env.vars["KEEPER_CONFIG"] = writeConfigFile(t, "rcon:\n  port: 25580\n  password: secret\n")

	cfg, err := env.loadConfig("", true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.RCON.Port != 25580 {
		t.Errorf("port = %d, want 25580", cfg.RCON.Port)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	env := newTestEnvironment(t)
	path := writeConfigFile(t, "rcon:\n  password: secret\nsupervisor:\n  cooldown: 7h\n")
	if _, err := env.loadConfig(path, true); err == nil {
		t.Fatal("loadConfig accepted exhausted_penalty <= cooldown")
	}
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnvironment(t)
	if err := env.run("version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(env.out.String(), "keeper ") {
		t.Errorf("output = %q, want it to start with 'keeper '", env.out.String())
	}

	env.out.Reset()
	if err := env.run("version", "--json"); err != nil {
		t.Fatalf("version --json: %v", err)
	}
	if !strings.Contains(env.out.String(), `"go_version"`) {
		t.Errorf("JSON output = %q, missing go_version", env.out.String())
	}
}
