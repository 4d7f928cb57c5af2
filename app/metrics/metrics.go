// Package metrics provides Prometheus metrics for minute-foot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts engine cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minutefoot",
			Name:      "cycles_total",
			Help:      "Total number of engine cycles",
		},
		[]string{"cycle", "status"},
	)

	// CycleDuration measures how long each cycle takes.
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "minutefoot",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of engine cycles in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"cycle"},
	)

	// EventsTotal counts announced events by kind.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minutefoot",
			Name:      "events_total",
			Help:      "Total number of announced events",
		},
		[]string{"kind"},
	)

	// DeliveriesTotal counts deliveries per destination kind.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minutefoot",
			Name:      "deliveries_total",
			Help:      "Total number of delivery attempts",
		},
		[]string{"destination", "status"},
	)

	// SessionRestarts counts discarded scrape sessions.
	SessionRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "minutefoot",
			Name:      "session_restarts_total",
			Help:      "Total number of discarded scrape sessions",
		},
	)

	// TrackedMatches is the number of live matches in the state store.
	TrackedMatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "minutefoot",
			Name:      "tracked_matches",
			Help:      "Number of live matches currently tracked",
		},
	)
)

// RecordCycle records the outcome and duration of one cycle.
func RecordCycle(cycle, status string, duration float64) {
	CyclesTotal.WithLabelValues(cycle, status).Inc()
	CycleDuration.WithLabelValues(cycle).Observe(duration)
}

func RecordEvent(kind string) {
	EventsTotal.WithLabelValues(kind).Inc()
}

func RecordDelivery(destination, status string) {
	DeliveriesTotal.WithLabelValues(destination, status).Inc()
}

func RecordSessionRestart() {
	SessionRestarts.Inc()
}

func SetTrackedMatches(n int) {
	TrackedMatches.Set(float64(n))
}
