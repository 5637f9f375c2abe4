package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// Printer writes one line per event. It is the non-interactive
// counterpart of ProgressView.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) OnProgress(e jsonload.ProgressEvent) {
	p.printf("Progress: %s\n", e)
}

func (p *Printer) OnRate(e jsonload.RateEvent) {
	p.printf("Rate: %s\n", e)
}

func (p *Printer) OnComplete(e jsonload.CompletionEvent) {
	s := e.Summary
	p.printf("%s\n", s.Message())
	for _, path := range s.SortedDuplicates() {
		p.printf("  duplicate: %s\n", path)
	}
	p.printf("Elapsed: %s (%.2f files/s)\n", s.Elapsed.Round(time.Millisecond), s.Rate())
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

var _ jsonload.EventSink = (*Printer)(nil)
