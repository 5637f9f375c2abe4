package jsonload

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Phase is the lifecycle of a run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Summary is the final snapshot of a run. Phase is PhaseCompleted when every
// batch ran and PhaseFailed when the run stopped early.
type Summary struct {
	RunID      string
	Phase      Phase
	Total      int
	Inserted   int
	Duplicates []string
	Failed     map[FailureKind]int
	Elapsed    time.Duration
}

// FailedFiles counts files whose record was not stored.
func (s Summary) FailedFiles() int {
	return s.Failed[FailureDecode] + s.Failed[FailureMissingKey] + s.Failed[FailureStorage]
}

// UndeletedFiles counts stored records whose source file could not be removed.
func (s Summary) UndeletedFiles() int {
	return s.Failed[FailureDisposal]
}

// Clean reports a run with no duplicates and no failures of any kind.
func (s Summary) Clean() bool {
	return len(s.Duplicates) == 0 && s.FailedFiles() == 0 && s.UndeletedFiles() == 0
}

// Message renders the completion text shown to operators.
func (s Summary) Message() string {
	if s.Clean() {
		return "All files sent successfully."
	}
	var parts []string
	if n := len(s.Duplicates); n > 0 {
		parts = append(parts, fmt.Sprintf("Duplicate files: %d", n))
	}
	if n := s.FailedFiles(); n > 0 {
		parts = append(parts, fmt.Sprintf("Failed files: %d", n))
	}
	if n := s.UndeletedFiles(); n > 0 {
		parts = append(parts, fmt.Sprintf("Undeleted files: %d", n))
	}
	return "Process completed. " + strings.Join(parts, ", ")
}

// Rate returns files per second over the whole run, or 0 for a zero elapsed time.
func (s Summary) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Total) / s.Elapsed.Seconds()
}

// SortedDuplicates returns a sorted copy of the duplicate paths.
func (s Summary) SortedDuplicates() []string {
	out := append([]string(nil), s.Duplicates...)
	sort.Strings(out)
	return out
}
