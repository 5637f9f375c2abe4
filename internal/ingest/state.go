package ingest

import (
	"time"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

type result int

const (
	resultInserted result = iota
	resultDuplicate
	resultFailed
)

// outcome is what one unit reports back. err is set for failures and for
// inserted records whose file could not be removed.
type outcome struct {
	path   string
	result result
	err    error
}

// runState is owned by the scheduling goroutine and only touched between
// batches.
type runState struct {
	runID      string
	phase      jsonload.Phase
	total      int
	completed  int
	inserted   int
	duplicates []string
	failed     map[jsonload.FailureKind]int
	start      time.Time
	now        func() time.Time
}

func newRunState(runID string, total int, now func() time.Time) *runState {
	return &runState{
		runID:  runID,
		phase:  jsonload.PhaseIdle,
		total:  total,
		failed: make(map[jsonload.FailureKind]int),
		now:    now,
	}
}

func (s *runState) begin() {
	s.phase = jsonload.PhaseRunning
	s.start = s.now()
}

// merge folds one batch of outcomes into the run.
func (s *runState) merge(outcomes []outcome) {
	for _, o := range outcomes {
		s.completed++
		switch o.result {
		case resultInserted:
			s.inserted++
			if o.err != nil {
				s.failed[jsonload.FailureDisposal]++
			}
		case resultDuplicate:
			s.duplicates = append(s.duplicates, o.path)
		case resultFailed:
			kind := jsonload.KindOf(o.err)
			if kind == "" {
				kind = jsonload.FailureStorage
			}
			s.failed[kind]++
		}
	}
}

func (s *runState) elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return s.now().Sub(s.start)
}

func (s *runState) progress() jsonload.ProgressEvent {
	return jsonload.ProgressEvent{Completed: s.completed, Total: s.total}
}

// rate returns files per second so far; ok is false before any time has
// passed.
func (s *runState) rate() (jsonload.RateEvent, bool) {
	elapsed := s.elapsed()
	if elapsed <= 0 {
		return jsonload.RateEvent{}, false
	}
	return jsonload.RateEvent{FilesPerSecond: float64(s.completed) / elapsed.Seconds()}, true
}

func (s *runState) summary() jsonload.Summary {
	failed := make(map[jsonload.FailureKind]int, len(s.failed))
	for k, v := range s.failed {
		failed[k] = v
	}
	return jsonload.Summary{
		RunID:      s.runID,
		Phase:      s.phase,
		Total:      s.total,
		Inserted:   s.inserted,
		Duplicates: append([]string(nil), s.duplicates...),
		Failed:     failed,
		Elapsed:    s.elapsed(),
	}
}
