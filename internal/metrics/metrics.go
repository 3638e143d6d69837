// Package metrics counts encoded documents for a batch run and exports them
// in the node exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for documents_encoded_total.
const (
	OutcomeOK    = "ok"
	OutcomeStub  = "stub"
	OutcomeError = "error"
)

// Metrics holds the collectors of one run on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	records   prometheus.Counter
	duration  prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bai2_documents_encoded_total",
				Help: "Total number of statement inputs processed, by outcome",
			},
			[]string{"outcome"},
		),
		records: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bai2_records_written_total",
				Help: "Total number of BAI2 records in encoded documents",
			},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bai2_encode_duration_seconds",
				Help:    "Duration of load, encode and write for one statement input",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
	}
}

// Observe records one processed input.
func (m *Metrics) Observe(outcome string, records int, elapsed time.Duration) {
	m.documents.WithLabelValues(outcome).Inc()
	m.records.Add(float64(records))
	m.duration.Observe(elapsed.Seconds())
}

// Registry exposes the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values to path for the node exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
