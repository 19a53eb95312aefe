// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/bureau-foundation/keeper/lib/clock"
)

// ProcessTable finds the server's processes. Implemented by
// proctable.Scanner.
type ProcessTable interface {
	Match(ctx context.Context) ([]int32, error)
}

// PortProber checks whether a TCP address accepts connections.
// Implemented by DialProber.
type PortProber interface {
	Probe(ctx context.Context, address string) error
}

// StatFunc returns file metadata. os.Stat in production.
type StatFunc func(name string) (os.FileInfo, error)

const (
	DefaultScanTimeout    = 5 * time.Second
	DefaultStaleThreshold = 5 * time.Minute
)

// Config wires a Monitor to its collaborators.
type Config struct {
	// Processes is required.
	Processes ProcessTable

	// Prober probes Host:Port. Nil means no probing capability: the
	// port check is skipped and passes.
	Prober PortProber
	Host   string
	Port   int

	// LogPath is the server log whose modification time indicates
	// activity.
	LogPath        string
	StaleThreshold time.Duration
	StaleLogPolicy StaleLogPolicy

	// ScanTimeout bounds one process-table scan.
	ScanTimeout time.Duration

	Clock  clock.Clock
	Stat   StatFunc
	Logger *slog.Logger
}

// Monitor evaluates server health. It is safe for concurrent use.
type Monitor struct {
	processes      ProcessTable
	prober         PortProber
	host           string
	port           int
	logPath        string
	staleThreshold time.Duration
	policy         StaleLogPolicy
	scanTimeout    time.Duration
	clock          clock.Clock
	stat           StatFunc
	logger         *slog.Logger
}

// NewMonitor returns a Monitor with zero-valued Config fields replaced
// by defaults.
func NewMonitor(config Config) *Monitor {
	monitor := &Monitor{
		processes:      config.Processes,
		prober:         config.Prober,
		host:           config.Host,
		port:           config.Port,
		logPath:        config.LogPath,
		staleThreshold: config.StaleThreshold,
		policy:         config.StaleLogPolicy,
		scanTimeout:    config.ScanTimeout,
		clock:          config.Clock,
		stat:           config.Stat,
		logger:         config.Logger,
	}
	if monitor.staleThreshold <= 0 {
		monitor.staleThreshold = DefaultStaleThreshold
	}
	if monitor.policy == "" {
		monitor.policy = PolicyPermissive
	}
	if monitor.scanTimeout <= 0 {
		monitor.scanTimeout = DefaultScanTimeout
	}
	if monitor.clock == nil {
		monitor.clock = clock.Real()
	}
	if monitor.stat == nil {
		monitor.stat = os.Stat
	}
	if monitor.logger == nil {
		monitor.logger = slog.New(slog.DiscardHandler)
	}
	return monitor
}

// CheckProcess reports whether at least one process matches the launch
// signature. A failed scan is logged and reported as false: the
// supervisor cannot confirm the server is running.
func (m *Monitor) CheckProcess(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.scanTimeout)
	defer cancel()

	pids, err := m.processes.Match(ctx)
	if err != nil {
		m.logger.Warn("process table scan failed", "error", err)
		return false
	}
	return len(pids) > 0
}

// CheckPort reports whether host:port accepts a TCP connection. With no
// prober configured the check is skipped and passes.
func (m *Monitor) CheckPort(ctx context.Context, host string, port int) bool {
	if m.prober == nil {
		return true
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))
	if err := m.prober.Probe(ctx, address); err != nil {
		m.logger.Debug("port probe failed", "address", address, "error", err)
		return false
	}
	return true
}

// CheckLogActivity reports whether logPath was modified within
// staleThreshold of now. A missing or unreadable log counts as stale.
func (m *Monitor) CheckLogActivity(logPath string, staleThreshold time.Duration) bool {
	if logPath == "" {
		return false
	}
	info, err := m.stat(logPath)
	if err != nil {
		m.logger.Debug("log stat failed", "log_path", logPath, "error", err)
		return false
	}
	return m.clock.Now().Sub(info.ModTime()) <= staleThreshold
}

// Evaluate combines the checks into a verdict:
//
//   - no matching process: ProcessDown, whatever the log says
//   - log written within the stale threshold: Healthy, port not probed
//   - log stale, prober configured: Healthy if the port answers,
//     otherwise PortUnreachable
//   - log stale, no prober: Healthy under PolicyPermissive, LogStale
//     under PolicyStrict
func (m *Monitor) Evaluate(ctx context.Context) Verdict {
	if !m.CheckProcess(ctx) {
		return ProcessDown
	}
	if m.CheckLogActivity(m.logPath, m.staleThreshold) {
		return Healthy
	}
	if m.prober != nil {
		if m.CheckPort(ctx, m.host, m.port) {
			return Healthy
		}
		return PortUnreachable
	}
	if m.policy == PolicyStrict {
		return LogStale
	}
	m.logger.Debug("log stale and no port probe configured, assuming healthy", "log_path", m.logPath)
	return Healthy
}
