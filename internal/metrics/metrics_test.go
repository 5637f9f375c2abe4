package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/jsonload/internal/metrics"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

type call struct {
	name   string
	value  float64
	labels metrics.Labels
}

type fakeBackend struct {
	counters   []call
	histograms []call
	flushErr   error
	flushed    int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels metrics.Labels) {
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.flushed++
	return f.flushErr
}

func TestSink_RecordsEvents(t *testing.T) {
	backend := &fakeBackend{}
	sink := metrics.NewSink(backend)

	sink.OnProgress(jsonload.ProgressEvent{Completed: 500, Total: 1000})
	sink.OnRate(jsonload.RateEvent{FilesPerSecond: 250})
	sink.OnComplete(jsonload.CompletionEvent{Summary: jsonload.Summary{
		Inserted:   7,
		Duplicates: []string{"a.json", "b.json"},
		Failed:     map[jsonload.FailureKind]int{jsonload.FailureDecode: 1},
		Elapsed:    4 * time.Second,
	}})

	assert.ElementsMatch(t, []call{
		{metrics.MetricBatches, 1, nil},
		{metrics.MetricFiles, 7, metrics.Labels{"kind": "inserted"}},
		{metrics.MetricFiles, 2, metrics.Labels{"kind": "duplicate"}},
		{metrics.MetricFiles, 1, metrics.Labels{"kind": "decode"}},
	}, backend.counters)
	assert.Equal(t, []call{
		{metrics.MetricRate, 250, nil},
		{metrics.MetricRunDuration, 4, nil},
	}, backend.histograms)
}

func TestSink_SkipsZeroCounts(t *testing.T) {
	backend := &fakeBackend{}
	metrics.NewSink(backend).OnComplete(jsonload.CompletionEvent{})

	assert.Empty(t, backend.counters)
	assert.Len(t, backend.histograms, 1)
}

func TestNewSink_NilBackend(t *testing.T) {
	sink := metrics.NewSink(nil)
	assert.NotPanics(t, func() {
		sink.OnProgress(jsonload.ProgressEvent{})
		sink.OnComplete(jsonload.CompletionEvent{})
	})
}

func TestMulti(t *testing.T) {
	a := &fakeBackend{}
	b := &fakeBackend{flushErr: errors.New("gateway down")}
	m := metrics.Multi{a, b}

	m.IncCounter(metrics.MetricBatches, 1, nil)
	m.ObserveHistogram(metrics.MetricRate, 3, nil)
	err := m.Flush()

	assert.ErrorContains(t, err, "gateway down")
	assert.Len(t, a.counters, 1)
	assert.Len(t, b.histograms, 1)
	assert.Equal(t, 1, a.flushed)
	assert.Equal(t, 1, b.flushed)
	assert.NoError(t, metrics.Nop{}.Flush())
}
