package component

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlbridge",
			Subsystem: "component",
			Name:      "loads_total",
			Help:      "Total model load attempts by component kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mlbridge",
			Subsystem: "component",
			Name:      "load_duration_seconds",
			Help:      "Duration of successful model loads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	verbsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlbridge",
			Subsystem: "component",
			Name:      "verbs_total",
			Help:      "Total executed verbs (generate, transcribe, ...) by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	componentsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mlbridge",
			Subsystem: "component",
			Name:      "active",
			Help:      "Live (not destroyed) components by kind",
		},
		[]string{"kind"},
	)

	streamTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlbridge",
			Subsystem: "stream",
			Name:      "tokens_total",
			Help:      "Tokens delivered to streaming sinks by component kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(loadsTotal, loadDuration, verbsTotal, componentsActive, streamTokensTotal)
}
