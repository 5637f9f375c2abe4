// Package prompush pushes run metrics to a Prometheus Pushgateway.
//
// A load is a short-lived batch job, so nothing is scraped: collectors
// live in a private registry that Flush pushes under the job grouping key.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/vvka-141/jsonload/internal/metrics"
)

// DefaultJob is the Pushgateway job used when none is configured.
const DefaultJob = "jsonload"

// Backend is a Pushgateway metrics.Backend.
type Backend struct {
	gatewayURL string
	job        string
	reg        *prometheus.Registry

	files       *prometheus.CounterVec
	batches     prometheus.Counter
	rate        prometheus.Summary
	runDuration prometheus.Gauge
}

// NewBackend builds a backend pushing to gatewayURL, e.g.
// http://pushgateway:9091.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if job == "" {
		job = DefaultJob
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		job:        job,
		reg:        prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.MetricFiles,
			Help: "Files processed, partitioned by outcome kind.",
		}, []string{"kind"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.MetricBatches,
			Help: "Batches completed.",
		}),
		rate: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       metrics.MetricRate,
			Help:       "Throughput observed after each batch.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01},
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metrics.MetricRunDuration,
			Help: "Wall time of the last completed run.",
		}),
	}

	for _, c := range []prometheus.Collector{b.files, b.batches, b.rate, b.runDuration} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// Job returns the Pushgateway job name.
func (b *Backend) Job() string { return b.job }

// Registry exposes the collectors for inspection.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.MetricFiles:
		if kind := labels["kind"]; kind != "" {
			b.files.WithLabelValues(kind).Add(delta)
		}
	case metrics.MetricBatches:
		b.batches.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, _ metrics.Labels) {
	switch name {
	case metrics.MetricRate:
		b.rate.Observe(value)
	case metrics.MetricRunDuration:
		b.runDuration.Set(value)
	}
}

// Flush replaces the job's metric group on the gateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.job).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}

var _ metrics.Backend = (*Backend)(nil)
