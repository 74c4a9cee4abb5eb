package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the scheduling counters. Tests build one on their own
// registry; the server uses Default.
type Metrics struct {
	Bookings           *prometheus.CounterVec
	Cancellations      *prometheus.CounterVec
	SideEffectFailures *prometheus.CounterVec
	JobsProcessed      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Bookings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gobarber",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),
		Cancellations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gobarber",
			Name:      "cancellations_total",
			Help:      "Cancellation attempts by outcome.",
		}, []string{"outcome"}),
		SideEffectFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gobarber",
			Name:      "side_effect_failures_total",
			Help:      "Notifications and jobs that could not be emitted after commit.",
		}, []string{"effect"}),
		JobsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gobarber",
			Name:      "jobs_processed_total",
			Help:      "Background jobs handled by the worker.",
		}, []string{"kind", "outcome"}),
	}
}

var Default = NewMetrics(prometheus.DefaultRegisterer)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
