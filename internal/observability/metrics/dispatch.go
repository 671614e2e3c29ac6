package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics observes the routing state machine: per-handler outcomes,
// fallback hops and end-to-end dispatch latency.
type DispatchMetrics struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	fallbackTotal    *prometheus.CounterVec
}

func NewDispatchMetrics(registry *prometheus.Registry, service string) *DispatchMetrics {
	dispatchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Total dispatches by final handler and outcome.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"handler", "outcome"},
	)
	dispatchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qa",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "End-to-end dispatch duration in seconds by final handler.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"handler"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "dispatch",
			Name:      "fallback_total",
			Help:      "Fallback hops by source and target handler.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"from", "to"},
	)

	registry.MustRegister(dispatchTotal, dispatchDuration, fallbackTotal)

	return &DispatchMetrics{
		dispatchTotal:    dispatchTotal,
		dispatchDuration: dispatchDuration,
		fallbackTotal:    fallbackTotal,
	}
}

func (m *DispatchMetrics) ObserveDispatch(handlerID, outcome string, duration time.Duration) {
	m.dispatchTotal.WithLabelValues(handlerID, outcome).Inc()
	m.dispatchDuration.WithLabelValues(handlerID).Observe(duration.Seconds())
}

func (m *DispatchMetrics) ObserveFallback(fromHandler, toHandler string) {
	m.fallbackTotal.WithLabelValues(fromHandler, toHandler).Inc()
}
