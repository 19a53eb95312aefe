// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/keeper/lib/health"
)

// Metrics exports the supervisor's state to prometheus. A nil *Metrics
// records nothing.
type Metrics struct {
	status       *prometheus.GaugeVec
	restartCount prometheus.Gauge
	restarts     *prometheus.CounterVec
	verdicts     *prometheus.CounterVec
	lastPoll     prometheus.Gauge
}

// NewMetrics creates the supervisor's collectors and registers them
// with registerer. Registration failures panic, as with
// prometheus.MustRegister.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	const namespace = "keeper"

	metrics := &Metrics{
		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "supervisor",
				Name:      "status",
				Help:      "1 for the supervisor's current status, 0 for the others.",
			},
			[]string{"status"},
		),
		restartCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "supervisor",
				Name:      "restart_count",
				Help:      "Restart attempts since the budget was last restored.",
			},
		),
		restarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "supervisor",
				Name:      "restarts_total",
				Help:      "Restart attempts by outcome.",
			},
			[]string{"result"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "health",
				Name:      "verdicts_total",
				Help:      "Health evaluations by verdict.",
			},
			[]string{"verdict"},
		),
		lastPoll: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "supervisor",
				Name:      "last_poll_timestamp_seconds",
				Help:      "Unix time of the most recent poll.",
			},
		),
	}

	registerer.MustRegister(
		metrics.status,
		metrics.restartCount,
		metrics.restarts,
		metrics.verdicts,
		metrics.lastPoll,
	)

	// Export every label value from the start so rate() and absent()
	// queries see zeros instead of missing series.
	for _, status := range Statuses() {
		metrics.status.WithLabelValues(status.String())
	}
	for _, verdict := range health.Verdicts() {
		metrics.verdicts.WithLabelValues(verdict.String())
	}
	metrics.restarts.WithLabelValues("confirmed")
	metrics.restarts.WithLabelValues("failed")

	return metrics
}

func (m *Metrics) observePoll(verdict health.Verdict, state State, at time.Time) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(verdict.String()).Inc()
	for _, status := range Statuses() {
		value := 0.0
		if status == state.Status {
			value = 1
		}
		m.status.WithLabelValues(status.String()).Set(value)
	}
	m.restartCount.Set(float64(state.RestartCount))
	m.lastPoll.Set(float64(at.UnixNano()) / 1e9)
}

func (m *Metrics) observeRestart(confirmed bool) {
	if m == nil {
		return
	}
	result := "failed"
	if confirmed {
		result = "confirmed"
	}
	m.restarts.WithLabelValues(result).Inc()
}
