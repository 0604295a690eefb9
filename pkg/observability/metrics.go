// Package observability holds the run's counters and logger.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a run did. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Records   *prometheus.CounterVec
	Failures  *prometheus.CounterVec
	Estimated prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "focalstats",
				Name:      "records_total",
				Help:      "Records produced, by extraction strategy.",
			},
			[]string{"strategy"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "focalstats",
				Name:      "strategy_failures_total",
				Help:      "Extraction attempts that failed, by strategy.",
			},
			[]string{"strategy"},
		),
		Estimated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "focalstats",
				Name:      "estimated_total",
				Help:      "35mm-equivalent focal lengths derived from a crop factor.",
			},
		),
	}
	m.Registry.MustRegister(m.Records, m.Failures, m.Estimated)
	return m
}

func (m *Metrics) RecordsExtracted(strategy string, n int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(strategy).Add(float64(n))
}

func (m *Metrics) StrategyFailed(strategy string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(strategy).Inc()
}

func (m *Metrics) EquivalentsEstimated(n int) {
	if m == nil {
		return
	}
	m.Estimated.Add(float64(n))
}

// WriteTextfile writes the counters in Prometheus text format, suitable for
// the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
