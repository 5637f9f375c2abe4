package datadog

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/jsonload/internal/metrics"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(_ context.Context, body datadogV2.MetricPayload, _ ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func newTestBackend(t *testing.T, sub *fakeSubmitter) *Backend {
	t.Helper()
	t.Setenv("ENV", "test")
	b, err := NewBackend(context.Background(), Options{
		JobName:    "nightly",
		Tags:       []string{"team:geo"},
		FlushEvery: time.Hour,
		now:        func() time.Time { return time.Unix(1700000000, 0) },
		submitter:  sub,
	})
	require.NoError(t, err)
	return b
}

func TestFlush_BuildsSeries(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	b.IncCounter(metrics.MetricFiles, 7, metrics.Labels{"kind": "inserted"})
	b.IncCounter(metrics.MetricFiles, 1, metrics.Labels{"kind": "duplicate"})
	b.IncCounter(metrics.MetricBatches, 2, nil)
	b.IncCounter(metrics.MetricBatches, -1, nil)
	b.ObserveHistogram(metrics.MetricRate, 100, nil)
	b.ObserveHistogram(metrics.MetricRate, 140, nil)
	b.ObserveHistogram(metrics.MetricRunDuration, 3.5, nil)

	require.NoError(t, b.Close())
	require.Equal(t, 1, sub.count())

	got := map[string]float64{}
	for _, s := range sub.payloads[0].Series {
		require.Len(t, s.Points, 1)
		assert.Equal(t, int64(1700000000), *s.Points[0].Timestamp)
		assert.Contains(t, s.Tags, "env:test")
		assert.Contains(t, s.Tags, "job:nightly")
		assert.Contains(t, s.Tags, "team:geo")
		key := s.Metric
		for _, tag := range s.Tags {
			if len(tag) > 5 && tag[:5] == "kind:" {
				key += "/" + tag[5:]
			}
		}
		got[key] = *s.Points[0].Value
	}
	assert.Equal(t, map[string]float64{
		"jsonload.files.total/duplicate": 1,
		"jsonload.files.total/inserted":  7,
		"jsonload.batches.total":         2,
		"jsonload.rate.files_per_second": 140,
		"jsonload.run.duration_seconds":  3.5,
	}, got)
}

func TestFlush_EmptyIsNoop(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)
	require.NoError(t, b.Flush())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Zero(t, sub.count())
}

func TestFlush_ErrorDropsBuffer(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("403 Forbidden")}
	b := newTestBackend(t, sub)
	defer b.Close()

	b.IncCounter(metrics.MetricBatches, 1, nil)
	err := b.Flush()
	assert.ErrorContains(t, err, "datadog: submit metrics")
	assert.NoError(t, b.Flush())
	assert.Equal(t, 1, sub.count())
}

func TestEnvTag(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DD_ENV", " staging ")
	assert.Equal(t, "env:staging", envTag())

	t.Setenv("DD_ENV", "")
	assert.Equal(t, "env:unknown", envTag())
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"env:prod", "team:geo"}, ParseTags(" env:prod, ,team:geo "))
	assert.Nil(t, ParseTags(""))
}
