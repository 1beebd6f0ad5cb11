package logger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of one pipeline run.
// All collectors are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	MonthFetches  *prometheus.CounterVec
	DetailFetches *prometheus.CounterVec
	WalkDuration  *prometheus.HistogramVec
	StoredEvents  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MonthFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elcairo",
			Subsystem: "feed",
			Name:      "months_total",
			Help:      "Calendar month fetches by result (ok, empty, failed).",
		}, []string{"result"}),
		DetailFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elcairo",
			Subsystem: "enricher",
			Name:      "details_total",
			Help:      "Detail page fetches by result (ok, failed, skipped).",
		}, []string{"result"}),
		WalkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "elcairo",
			Subsystem: "pager",
			Name:      "walk_seconds",
			Help:      "Duration of a month walk by direction.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"direction"}),
		StoredEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "elcairo",
			Subsystem: "storage",
			Name:      "events",
			Help:      "Number of events written by the last populate run.",
		}),
	}
	m.registry.MustRegister(m.MonthFetches, m.DetailFetches, m.WalkDuration, m.StoredEvents)
	return m
}

// Registry exposes the private registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveWalk records the duration of a walk started at start
func (m *Metrics) ObserveWalk(direction string, start time.Time) {
	m.WalkDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
}

// WriteMetrics writes all collectors to path in the text exposition format
func (m *Metrics) WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the package-level metrics
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
