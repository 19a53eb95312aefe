// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/keeper/lib/clock"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeProcessTable struct {
	pids []int32
	err  error
}

func (f *fakeProcessTable) Match(context.Context) ([]int32, error) {
	return f.pids, f.err
}

type fakeProber struct {
	mu        sync.Mutex
	err       error
	addresses []string
}

func (f *fakeProber) Probe(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addresses = append(f.addresses, address)
	return f.err
}

func (f *fakeProber) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.addresses)
}

// writeLog creates a log file whose mtime is age before the fake
// clock's current time.
func writeLog(t *testing.T, fake *clock.FakeClock, age time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latest.log")
	if err := os.WriteFile(path, []byte("[Server thread/INFO]: Done\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	modified := fake.Now().Add(-age)
	if err := os.Chtimes(path, modified, modified); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return path
}

func TestEvaluate(t *testing.T) {
	const threshold = 5 * time.Minute

	tests := []struct {
		name       string
		pids       []int32
		scanErr    error
		logAge     time.Duration // negative: no log file
		prober     *fakeProber
		policy     StaleLogPolicy
		want       Verdict
		wantProbes int
	}{
		{
			name:   "process missing with fresh log",
			logAge: time.Second,
			prober: &fakeProber{},
			want:   ProcessDown,
		},
		{
			name:   "process missing with stale log",
			logAge: time.Hour,
			prober: &fakeProber{},
			want:   ProcessDown,
		},
		{
			name:    "scan failure",
			pids:    []int32{100},
			scanErr: errors.New("permission denied"),
			logAge:  time.Second,
			want:    ProcessDown,
		},
		{
			name:   "fresh log skips port probe",
			pids:   []int32{100},
			logAge: time.Minute,
			prober: &fakeProber{err: errors.New("refused")},
			want:   Healthy,
		},
		{
			name:   "log exactly at threshold",
			pids:   []int32{100},
			logAge: threshold,
			prober: &fakeProber{err: errors.New("refused")},
			want:   Healthy,
		},
		{
			name:       "stale log port reachable",
			pids:       []int32{100},
			logAge:     time.Hour,
			prober:     &fakeProber{},
			want:       Healthy,
			wantProbes: 1,
		},
		{
			name:       "stale log port unreachable",
			pids:       []int32{100},
			logAge:     time.Hour,
			prober:     &fakeProber{err: errors.New("refused")},
			want:       PortUnreachable,
			wantProbes: 1,
		},
		{
			name:       "missing log port unreachable",
			pids:       []int32{100},
			logAge:     -1,
			prober:     &fakeProber{err: errors.New("refused")},
			want:       PortUnreachable,
			wantProbes: 1,
		},
		{
			name:   "stale log no prober permissive",
			pids:   []int32{100},
			logAge: time.Hour,
			policy: PolicyPermissive,
			want:   Healthy,
		},
		{
			name:   "stale log no prober default policy",
			pids:   []int32{100},
			logAge: time.Hour,
			want:   Healthy,
		},
		{
			name:   "stale log no prober strict",
			pids:   []int32{100},
			logAge: time.Hour,
			policy: PolicyStrict,
			want:   LogStale,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := clock.Fake(epoch)
			logPath := filepath.Join(t.TempDir(), "absent.log")
			if test.logAge >= 0 {
				logPath = writeLog(t, fake, test.logAge)
			}

			config := Config{
				Processes:      &fakeProcessTable{pids: test.pids, err: test.scanErr},
				Host:           "127.0.0.1",
				Port:           25565,
				LogPath:        logPath,
				StaleThreshold: threshold,
				StaleLogPolicy: test.policy,
				Clock:          fake,
			}
			if test.prober != nil {
				config.Prober = test.prober
			}

			monitor := NewMonitor(config)
			if got := monitor.Evaluate(context.Background()); got != test.want {
				t.Fatalf("Evaluate() = %v, want %v", got, test.want)
			}
			if test.prober != nil {
				if got := test.prober.calls(); got != test.wantProbes {
					t.Errorf("port probed %d times, want %d", got, test.wantProbes)
				}
			}
		})
	}
}

func TestEvaluateIsStateless(t *testing.T) {
	fake := clock.Fake(epoch)
	logPath := writeLog(t, fake, time.Second)
	processes := &fakeProcessTable{pids: []int32{100}}

	monitor := NewMonitor(Config{
		Processes:      processes,
		LogPath:        logPath,
		StaleThreshold: time.Minute,
		StaleLogPolicy: PolicyStrict,
		Clock:          fake,
	})

	if got := monitor.Evaluate(context.Background()); got != Healthy {
		t.Fatalf("first Evaluate() = %v, want Healthy", got)
	}
	processes.pids = nil
	if got := monitor.Evaluate(context.Background()); got != ProcessDown {
		t.Fatalf("second Evaluate() = %v, want ProcessDown", got)
	}
	processes.pids = []int32{200}
	fake.Advance(2 * time.Minute)
	if got := monitor.Evaluate(context.Background()); got != LogStale {
		t.Fatalf("third Evaluate() = %v, want LogStale", got)
	}
}

func TestCheckPortWithoutProberPasses(t *testing.T) {
	monitor := NewMonitor(Config{Processes: &fakeProcessTable{}})
	if !monitor.CheckPort(context.Background(), "127.0.0.1", 1) {
		t.Fatal("CheckPort without prober = false, want true")
	}
}

func TestCheckPortAddress(t *testing.T) {
	prober := &fakeProber{}
	monitor := NewMonitor(Config{Processes: &fakeProcessTable{}, Prober: prober})
	monitor.CheckPort(context.Background(), "::1", 25565)
	if len(prober.addresses) != 1 || prober.addresses[0] != "[::1]:25565" {
		t.Fatalf("probed %v, want [[::1]:25565]", prober.addresses)
	}
}

func TestCheckLogActivityEmptyPath(t *testing.T) {
	monitor := NewMonitor(Config{Processes: &fakeProcessTable{}})
	if monitor.CheckLogActivity("", time.Hour) {
		t.Fatal("CheckLogActivity(\"\") = true")
	}
}

func TestDialProber(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	prober := DialProber{Timeout: time.Second}
	if err := prober.Probe(context.Background(), listener.Addr().String()); err != nil {
		t.Fatalf("Probe of listening port: %v", err)
	}

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	closedAddress := closed.Addr().String()
	closed.Close()
	if err := prober.Probe(context.Background(), closedAddress); err == nil {
		t.Fatal("Probe of closed port succeeded")
	}
}

func TestDialProberCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (DialProber{}).Probe(ctx, "127.0.0.1:1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Probe error = %v, want context.Canceled", err)
	}
}

func TestMonitorWithDialProber(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	fake := clock.Fake(epoch)
	monitor := NewMonitor(Config{
		Processes:      &fakeProcessTable{pids: []int32{100}},
		Prober:         DialProber{Timeout: time.Second},
		Host:           "127.0.0.1",
		Port:           listener.Addr().(*net.TCPAddr).Port,
		LogPath:        writeLog(t, fake, time.Hour),
		StaleThreshold: time.Minute,
		Clock:          fake,
	})
	if got := monitor.Evaluate(context.Background()); got != Healthy {
		t.Fatalf("Evaluate() = %v, want Healthy", got)
	}
}
