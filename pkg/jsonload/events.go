package jsonload

import (
	"fmt"
	"sync"
)

// ProgressEvent is emitted once per completed batch.
type ProgressEvent struct {
	Completed int
	Total     int
}

func (e ProgressEvent) String() string {
	return fmt.Sprintf("%d/%d", e.Completed, e.Total)
}

// RateEvent carries cumulative throughput in files per second.
type RateEvent struct {
	FilesPerSecond float64
}

func (e RateEvent) String() string {
	return fmt.Sprintf("%.2f/s", e.FilesPerSecond)
}

// CompletionEvent is emitted once after the last batch of a successful run.
type CompletionEvent struct {
	Summary Summary
}

func (e CompletionEvent) String() string {
	return e.Summary.Message()
}

// EventSink receives run events. Calls come from the scheduler goroutine,
// one at a time, in order: progress, rate, ..., completion.
type EventSink interface {
	OnProgress(ProgressEvent)
	OnRate(RateEvent)
	OnComplete(CompletionEvent)
}

// FuncSink adapts plain functions to EventSink. Nil fields are skipped.
type FuncSink struct {
	Progress func(ProgressEvent)
	Rate     func(RateEvent)
	Complete func(CompletionEvent)
}

func (s FuncSink) OnProgress(e ProgressEvent) {
	if s.Progress != nil {
		s.Progress(e)
	}
}

func (s FuncSink) OnRate(e RateEvent) {
	if s.Rate != nil {
		s.Rate(e)
	}
}

func (s FuncSink) OnComplete(e CompletionEvent) {
	if s.Complete != nil {
		s.Complete(e)
	}
}

// MultiSink fans events out to every sink in order.
type MultiSink []EventSink

func (m MultiSink) OnProgress(e ProgressEvent) {
	for _, s := range m {
		s.OnProgress(e)
	}
}

func (m MultiSink) OnRate(e RateEvent) {
	for _, s := range m {
		s.OnRate(e)
	}
}

func (m MultiSink) OnComplete(e CompletionEvent) {
	for _, s := range m {
		s.OnComplete(e)
	}
}

// ChannelSink delivers events on buffered channels for consumers on another
// goroutine. Sends never block the scheduler: when a buffer is full the
// event is dropped, except completion which always has room for one.
// Close is called by the producer once the run has returned.
type ChannelSink struct {
	Progress chan ProgressEvent
	Rate     chan RateEvent
	Complete chan CompletionEvent

	closeOnce sync.Once
}

// NewChannelSink creates a sink with the given progress and rate buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{
		Progress: make(chan ProgressEvent, buffer),
		Rate:     make(chan RateEvent, buffer),
		Complete: make(chan CompletionEvent, 1),
	}
}

func (s *ChannelSink) OnProgress(e ProgressEvent) {
	select {
	case s.Progress <- e:
	default:
	}
}

func (s *ChannelSink) OnRate(e RateEvent) {
	select {
	case s.Rate <- e:
	default:
	}
}

func (s *ChannelSink) OnComplete(e CompletionEvent) {
	select {
	case s.Complete <- e:
	default:
	}
}

// Close closes all three channels. Safe to call more than once.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() {
		close(s.Progress)
		close(s.Rate)
		close(s.Complete)
	})
}

var (
	_ EventSink = FuncSink{}
	_ EventSink = MultiSink(nil)
	_ EventSink = (*ChannelSink)(nil)
)
