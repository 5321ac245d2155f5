package sweep

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors updated by a sweep.
type Metrics struct {
	Records    *prometheus.CounterVec
	Unresolved *prometheus.CounterVec
	Duration   prometheus.Histogram
	InFlight   prometheus.Gauge
}

// NewMetrics creates the sweep collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_sweep_records_total",
				Help: "Total number of records processed by sweeps",
			},
			[]string{"status"},
		),
		Unresolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_sweep_unresolved_total",
				Help: "Required parameters left unassigned by the graph, per parameter",
			},
			[]string{"parameter"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "espalier_sweep_record_duration_seconds",
				Help:    "Duration of one record resolution",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "espalier_sweep_in_flight",
				Help: "Records currently being resolved",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Records, m.Unresolved, m.Duration, m.InFlight)
	}
	return m
}
