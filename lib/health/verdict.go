// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import "fmt"

// Verdict is the outcome of one health evaluation.
type Verdict int

const (
	// Healthy means the server is running and showing signs of life.
	Healthy Verdict = iota

	// ProcessDown means no process matches the launch signature.
	ProcessDown

	// PortUnreachable means the process exists and its log is stale,
	// and the game port refuses connections.
	PortUnreachable

	// LogStale means the process exists, its log is stale, no port
	// probe is available, and the stale-log policy is strict.
	LogStale
)

var verdictNames = map[Verdict]string{
	Healthy:         "healthy",
	ProcessDown:     "process_down",
	PortUnreachable: "port_unreachable",
	LogStale:        "log_stale",
}

// String returns the snake_case name used in logs, metrics labels, and
// JSON output.
func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// OK reports whether the verdict is Healthy.
func (v Verdict) OK() bool { return v == Healthy }

// MarshalText encodes the verdict as its name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a verdict name produced by MarshalText.
func (v *Verdict) UnmarshalText(text []byte) error {
	for verdict, name := range verdictNames {
		if name == string(text) {
			*v = verdict
			return nil
		}
	}
	return fmt.Errorf("unknown health verdict %q", text)
}

// Verdicts returns every defined verdict in declaration order.
func Verdicts() []Verdict {
	return []Verdict{Healthy, ProcessDown, PortUnreachable, LogStale}
}

// StaleLogPolicy decides the verdict when the log is stale and the
// port cannot be probed.
type StaleLogPolicy string

const (
	// PolicyPermissive treats a stale log as healthy when nothing
	// else can confirm a failure. A quiet server with no players
	// writes nothing to its log for long stretches.
	PolicyPermissive StaleLogPolicy = "permissive"

	// PolicyStrict treats a stale log as a failure on its own.
	PolicyStrict StaleLogPolicy = "strict"
)

// ParseStaleLogPolicy validates a policy name. The empty string selects
// PolicyPermissive.
func ParseStaleLogPolicy(name string) (StaleLogPolicy, error) {
	switch StaleLogPolicy(name) {
	case "", PolicyPermissive:
		return PolicyPermissive, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown stale log policy %q (want %q or %q)", name, PolicyPermissive, PolicyStrict)
	}
}
