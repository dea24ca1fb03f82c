package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order engine outcomes. A nil receiver is a no-op so
// tests can omit it.
type OrderMetrics struct {
	placements    *prometheus.CounterVec
	placementTime *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
}

// NewOrderMetrics registers the order engine metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placements_total",
		Help: "Order placement attempts by outcome.",
	}, []string{"outcome"})
	placementTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_placement_seconds",
		Help:    "Duration of order placement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by target status and outcome.",
	}, []string{"status", "outcome"})
	reg.MustRegister(placements, placementTime, transitions)
	return &OrderMetrics{
		placements:    placements,
		placementTime: placementTime,
		transitions:   transitions,
	}
}

// ObservePlacement records one placement attempt and its duration.
func (o *OrderMetrics) ObservePlacement(outcome string, duration time.Duration) {
	if o == nil || o.placements == nil {
		return
	}
	label := normalizeLabel(outcome)
	o.placements.WithLabelValues(label).Inc()
	o.placementTime.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveTransition records one status transition attempt.
func (o *OrderMetrics) ObserveTransition(status, outcome string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(status), normalizeLabel(outcome)).Inc()
}
