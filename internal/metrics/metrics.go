// Package metrics records run telemetry through a pluggable Backend.
//
// The pipeline knows nothing about metrics: Sink adapts the pipeline's
// progress, rate and completion events onto a Backend, and concrete
// systems live in subpackages (prompush, datadog).
package metrics

import (
	"errors"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// Metric names. Backends ignore names they do not know.
const (
	MetricFiles       = "jsonload_files_total"
	MetricBatches     = "jsonload_batches_total"
	MetricRate        = "jsonload_rate_files_per_second"
	MetricRunDuration = "jsonload_run_duration_seconds"
)

// File outcome kinds used as the "kind" label of MetricFiles.
const (
	KindInserted  = "inserted"
	KindDuplicate = "duplicate"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics systems.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend buffers.
	Flush() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }

// Multi fans out to several backends.
type Multi []Backend

func (m Multi) IncCounter(name string, delta float64, labels Labels) {
	for _, b := range m {
		b.IncCounter(name, delta, labels)
	}
}

func (m Multi) ObserveHistogram(name string, value float64, labels Labels) {
	for _, b := range m {
		b.ObserveHistogram(name, value, labels)
	}
}

func (m Multi) Flush() error {
	var errs []error
	for _, b := range m {
		if err := b.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sink turns pipeline events into metrics.
type Sink struct {
	backend Backend
}

// NewSink returns a sink recording into backend. A nil backend records
// nothing.
func NewSink(backend Backend) *Sink {
	if backend == nil {
		backend = Nop{}
	}
	return &Sink{backend: backend}
}

func (s *Sink) OnProgress(jsonload.ProgressEvent) {
	s.backend.IncCounter(MetricBatches, 1, nil)
}

func (s *Sink) OnRate(e jsonload.RateEvent) {
	s.backend.ObserveHistogram(MetricRate, e.FilesPerSecond, nil)
}

func (s *Sink) OnComplete(e jsonload.CompletionEvent) {
	sum := e.Summary
	s.count(KindInserted, sum.Inserted)
	s.count(KindDuplicate, len(sum.Duplicates))
	for kind, n := range sum.Failed {
		s.count(string(kind), n)
	}
	s.backend.ObserveHistogram(MetricRunDuration, sum.Elapsed.Seconds(), nil)
}

func (s *Sink) count(kind string, n int) {
	if n > 0 {
		s.backend.IncCounter(MetricFiles, float64(n), Labels{"kind": kind})
	}
}

var (
	_ Backend            = Nop{}
	_ Backend            = Multi(nil)
	_ jsonload.EventSink = (*Sink)(nil)
)
