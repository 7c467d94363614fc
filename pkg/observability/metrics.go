// Package observability exposes Prometheus collectors for the turn
// pipeline: turn outcomes and latency, poll cycles against the reasoning
// runtime, and tool dispatch results.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcome label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeBusy      = "busy"
)

// Dispatch outcome label values.
const (
	DispatchOK       = "ok"
	DispatchDegraded = "degraded"
)

// Metrics bundles the orchestrator's collectors.
type Metrics struct {
	TurnsTotal    *prometheus.CounterVec
	TurnDuration  prometheus.Histogram
	PollCycles    prometheus.Counter
	ActionRounds  prometheus.Counter
	DispatchTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer yields working but unregistered collectors, which is
// what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counsel",
			Name:      "turns_total",
			Help:      "Turns processed, by outcome.",
		}, []string{"outcome"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "counsel",
			Name:      "turn_duration_seconds",
			Help:      "Wall-clock duration of a full turn.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		PollCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "counsel",
			Name:      "run_poll_cycles_total",
			Help:      "Status polls issued against the reasoning runtime.",
		}),
		ActionRounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "counsel",
			Name:      "action_rounds_total",
			Help:      "Requires-action rounds resolved.",
		}),
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counsel",
			Name:      "tool_dispatch_total",
			Help:      "Tool invocations dispatched, by outcome.",
		}, []string{"outcome"}),
	}
}
