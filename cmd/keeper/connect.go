// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keeper/cmd/keeper/cli"
	"github.com/bureau-foundation/keeper/lib/rcon"
)

// passwordEnvironmentVariable supplies the RCON password when no flag
// names one.
const passwordEnvironmentVariable = "KEEPER_RCON_PASSWORD"

// connectionFlags are the flags shared by the commands that talk to
// the server over RCON.
type connectionFlags struct {
	configPath   string
	host         string
	port         int
	password     string
	passwordFile string
	timeout      time.Duration
	retries      int
	cli.LogFlags

	flagSet *pflag.FlagSet
}

func (f *connectionFlags) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "configuration file (default $KEEPER_CONFIG)")
	flagSet.StringVar(&f.host, "host", "127.0.0.1", "RCON host")
	flagSet.IntVar(&f.port, "port", 25575, "RCON port")
	flagSet.StringVar(&f.password, "password", "", "RCON password (visible in ps; prefer --password-file or $"+passwordEnvironmentVariable+")")
	flagSet.StringVar(&f.passwordFile, "password-file", "", "file containing the RCON password")
	flagSet.DurationVar(&f.timeout, "timeout", rcon.DefaultTimeout, "timeout for connecting and for each reply")
	flagSet.IntVar(&f.retries, "retries", 0, "retry connection failures up to this many times")
	f.LogFlags.AddFlags(flagSet)
	f.flagSet = flagSet
}

// target is a resolved RCON endpoint.
type target struct {
	address  string
	password string
	options  rcon.Options
	retries  int
}

// resolve merges flags over the config file and finds the password:
// --password, then --password-file, then $KEEPER_RCON_PASSWORD, then
// the config, then an interactive prompt.
func (f *connectionFlags) resolve(env *environment, logger *slog.Logger) (target, error) {
	cfg, err := env.loadConfig(f.configPath, false)
	if err != nil {
		return target{}, err
	}

	host, port, timeout := cfg.RCON.Host, cfg.RCON.Port, cfg.RCON.Timeout
	if f.flagSet.Changed("host") {
		host = f.host
	}
	if f.flagSet.Changed("port") {
		port = f.port
	}
	if f.flagSet.Changed("timeout") {
		timeout = f.timeout
	}
	if port <= 0 || port > 65535 {
		return target{}, fmt.Errorf("port %d is out of range", port)
	}
	if f.retries < 0 {
		return target{}, fmt.Errorf("--retries must not be negative")
	}
	if f.password != "" && f.passwordFile != "" {
		return target{}, fmt.Errorf("--password and --password-file are mutually exclusive")
	}

	password, err := f.findPassword(env, cfg.RCON.ResolvePassword)
	if err != nil {
		return target{}, err
	}

	return target{
		address:  net.JoinHostPort(host, strconv.Itoa(port)),
		password: password,
		options:  rcon.Options{Timeout: timeout, Logger: logger},
		retries:  f.retries,
	}, nil
}

func (f *connectionFlags) findPassword(env *environment, fromConfig func() (string, error)) (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	if f.passwordFile != "" {
		data, err := os.ReadFile(f.passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading --password-file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if password := env.getenv(passwordEnvironmentVariable); password != "" {
		return password, nil
	}
	password, err := fromConfig()
	if err != nil {
		return "", err
	}
	if password != "" {
		return password, nil
	}
	if env.promptPassword != nil {
		return env.promptPassword("RCON password: ")
	}
	return "", fmt.Errorf("no RCON password: use --password-file, $%s, or rcon.password in the config", passwordEnvironmentVariable)
}

// connect dials and authenticates, retrying connection failures with
// exponential backoff up to target.retries times. Authentication and
// protocol failures are never retried.
func connect(ctx context.Context, t target, logger *slog.Logger) (*rcon.Session, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second

	var session *rcon.Session
	operation := func() error {
		candidate, err := rcon.Dial(ctx, t.address, t.options)
		if err == nil {
			err = candidate.Authenticate(ctx, t.password)
			if err != nil {
				candidate.Close()
			}
		}
		if err != nil {
			if exitCodeFor(err) != cli.ExitConnection {
				return backoff.Permanent(err)
			}
			return err
		}
		session = candidate
		return nil
	}
	notify := func(err error, delay time.Duration) {
		logger.Warn("rcon connection failed, retrying",
			"address", t.address,
			"error", err,
			"delay", delay,
		)
	}

	retryPolicy := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(t.retries)), ctx)
	if err := backoff.RetryNotify(operation, retryPolicy, notify); err != nil {
		return nil, err
	}
	return session, nil
}

// runOnce sends one console command on its own connection. Only the
// dial and authentication are retried; the command is sent once.
func runOnce(ctx context.Context, t target, command string, logger *slog.Logger) (string, error) {
	session, err := connect(ctx, t, logger)
	if err != nil {
		return "", err
	}
	defer session.Close()
	return session.Execute(ctx, command)
}

// exitCodeFor maps an RCON failure to its documented exit code. An
// AuthError wrapping a transport failure is still an auth failure.
func exitCodeFor(err error) int {
	var authError *rcon.AuthError
	var connectionError *rcon.ConnectionError
	var protocolError *rcon.ProtocolError
	switch {
	case errors.As(err, &authError):
		return cli.ExitAuth
	case errors.As(err, &connectionError):
		return cli.ExitConnection
	case errors.As(err, &protocolError):
		return cli.ExitProtocol
	default:
		return cli.ExitFailure
	}
}

func rconFailure(err error) error {
	return &cli.ExitError{Code: exitCodeFor(err), Err: err}
}
