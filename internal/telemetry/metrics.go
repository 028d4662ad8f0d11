package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsTracked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mlbridge",
			Subsystem: "telemetry",
			Name:      "events_tracked_total",
			Help:      "Analytics events accepted into the queue",
		},
	)

	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlbridge",
			Subsystem: "telemetry",
			Name:      "events_dropped_total",
			Help:      "Analytics events dropped before delivery",
		},
		[]string{"reason"},
	)

	flushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlbridge",
			Subsystem: "telemetry",
			Name:      "flushes_total",
			Help:      "Flush attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(eventsTracked, eventsDropped, flushesTotal)
}
