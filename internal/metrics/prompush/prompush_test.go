package prompush_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/jsonload/internal/metrics"
	"github.com/vvka-141/jsonload/internal/metrics/prompush"
)

func TestNewBackend(t *testing.T) {
	_, err := prompush.NewBackend("job", "")
	assert.Error(t, err)

	b, err := prompush.NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, prompush.DefaultJob, b.Job())
}

func TestBackend_Records(t *testing.T) {
	b, err := prompush.NewBackend("test", "http://unused")
	require.NoError(t, err)

	b.IncCounter(metrics.MetricFiles, 7, metrics.Labels{"kind": "inserted"})
	b.IncCounter(metrics.MetricFiles, 2, metrics.Labels{"kind": "duplicate"})
	b.IncCounter(metrics.MetricFiles, 1, nil) // no kind: ignored
	b.IncCounter(metrics.MetricBatches, 1, nil)
	b.IncCounter(metrics.MetricBatches, 1, nil)
	b.IncCounter("unknown_metric", 5, nil)
	b.ObserveHistogram(metrics.MetricRate, 120, nil)
	b.ObserveHistogram(metrics.MetricRunDuration, 8.5, nil)

	expected := `
# HELP jsonload_batches_total Batches completed.
# TYPE jsonload_batches_total counter
jsonload_batches_total 2
# HELP jsonload_files_total Files processed, partitioned by outcome kind.
# TYPE jsonload_files_total counter
jsonload_files_total{kind="duplicate"} 2
jsonload_files_total{kind="inserted"} 7
# HELP jsonload_run_duration_seconds Wall time of the last completed run.
# TYPE jsonload_run_duration_seconds gauge
jsonload_run_duration_seconds 8.5
`
	err = testutil.GatherAndCompare(b.Registry(), strings.NewReader(expected),
		metrics.MetricBatches, metrics.MetricFiles, metrics.MetricRunDuration)
	assert.NoError(t, err)

	n, err := testutil.GatherAndCount(b.Registry())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestBackend_FlushPushesToGateway(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	b, err := prompush.NewBackend("nightly", gw.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.MetricBatches, 1, nil)

	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/nightly", path)
	assert.NotEmpty(t, body)
}

func TestBackend_FlushError(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer gw.Close()

	b, err := prompush.NewBackend("nightly", gw.URL)
	require.NoError(t, err)

	err = b.Flush()
	assert.ErrorContains(t, err, "prompush: push to")
}
