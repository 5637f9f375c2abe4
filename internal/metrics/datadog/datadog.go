// Package datadog submits run metrics to Datadog through the official API
// client. Credentials come from DD_API_KEY and DD_SITE.
//
// Metrics are buffered in memory and submitted on a ticker (default once a
// minute) so long loads produce a time series; Close stops the ticker and
// submits whatever is left.
package datadog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/vvka-141/jsonload/internal/metrics"
)

// DefaultFlushEvery is the submission interval when Options leaves it unset.
const DefaultFlushEvery = time.Minute

// Options configures the backend.
type Options struct {
	// JobName becomes tag "job:<name>". Defaults to "jsonload".
	JobName string

	// Tags are extra tags such as "env:prod".
	Tags []string

	FlushEvery time.Duration

	now       func() time.Time
	submitter submitter
}

type submitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend is a buffered Datadog metrics.Backend.
type Backend struct {
	api      submitter
	ctx      context.Context
	baseTags []string
	now      func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	files   map[string]float64
	batches float64
	rates   []float64
	runSecs []float64
}

// NewBackend starts a backend whose flush loop runs until Close.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "jsonload"
	}
	every := opts.FlushEvery
	if every <= 0 {
		every = DefaultFlushEvery
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	api := opts.submitter
	if api == nil {
		api = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}

	tags := append([]string{envTag(), "job:" + job}, opts.Tags...)

	b := &Backend{
		api:      api,
		ctx:      dd.NewDefaultContext(parent),
		baseTags: tags,
		now:      now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		files:    make(map[string]float64),
	}
	go b.loop(every)
	return b, nil
}

func envTag() string {
	for _, key := range []string{"ENV", "DD_ENV"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return "env:" + v
		}
	}
	return "env:unknown"
}

func (b *Backend) loop(every time.Duration) {
	defer close(b.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stop:
			return
		}
	}
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch name {
	case metrics.MetricFiles:
		if kind := labels["kind"]; kind != "" {
			b.files[kind] += delta
		}
	case metrics.MetricBatches:
		b.batches += delta
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, _ metrics.Labels) {
	if value < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch name {
	case metrics.MetricRate:
		b.rates = append(b.rates, value)
	case metrics.MetricRunDuration:
		b.runSecs = append(b.runSecs, value)
	}
}

type snapshot struct {
	files   map[string]float64
	batches float64
	rates   []float64
	runSecs []float64
}

func (s snapshot) empty() bool {
	return len(s.files) == 0 && s.batches == 0 && len(s.rates) == 0 && len(s.runSecs) == 0
}

func (b *Backend) takeSnapshot() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := snapshot{files: b.files, batches: b.batches, rates: b.rates, runSecs: b.runSecs}
	b.files = make(map[string]float64)
	b.batches = 0
	b.rates = nil
	b.runSecs = nil
	return s
}

// Flush submits and clears the buffer. Buffered data is dropped when the
// submission fails.
func (b *Backend) Flush() error {
	snap := b.takeSnapshot()
	if snap.empty() {
		return nil
	}
	payload := datadogV2.MetricPayload{Series: b.series(snap, b.now().Unix())}
	if _, _, err := b.api.SubmitMetrics(b.ctx, payload); err != nil {
		return fmt.Errorf("datadog: submit metrics: %w", err)
	}
	return nil
}

// Close stops the flush loop and submits the remainder. Extra calls only
// flush.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		close(b.stop)
		<-b.done
	})
	return b.Flush()
}

func (b *Backend) series(s snapshot, ts int64) []datadogV2.MetricSeries {
	var out []datadogV2.MetricSeries

	kinds := make([]string, 0, len(s.files))
	for kind := range s.files {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		out = append(out, point("jsonload.files.total", datadogV2.METRICINTAKETYPE_COUNT, s.files[kind], ts, b.tags("kind:"+kind)))
	}
	if s.batches > 0 {
		out = append(out, point("jsonload.batches.total", datadogV2.METRICINTAKETYPE_COUNT, s.batches, ts, b.baseTags))
	}
	if len(s.rates) > 0 {
		// The last observation is the run-to-date throughput.
		out = append(out, point("jsonload.rate.files_per_second", datadogV2.METRICINTAKETYPE_GAUGE, s.rates[len(s.rates)-1], ts, b.baseTags))
	}
	for _, secs := range s.runSecs {
		out = append(out, point("jsonload.run.duration_seconds", datadogV2.METRICINTAKETYPE_GAUGE, secs, ts, b.baseTags))
	}
	return out
}

func (b *Backend) tags(extra ...string) []string {
	out := make([]string, 0, len(b.baseTags)+len(extra))
	return append(append(out, b.baseTags...), extra...)
}

func point(metric string, kind datadogV2.MetricIntakeType, value float64, ts int64, tags []string) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   kind.Ptr(),
		Points: []datadogV2.MetricPoint{{Timestamp: dd.PtrInt64(ts), Value: dd.PtrFloat64(value)}},
		Tags:   tags,
	}
}

// ParseTags splits "env:prod,team:geo" into tags.
func ParseTags(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ metrics.Backend = (*Backend)(nil)
