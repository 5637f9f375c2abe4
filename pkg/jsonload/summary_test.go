package jsonload_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "running", jsonload.PhaseRunning.String())
	assert.Equal(t, "completed", jsonload.PhaseCompleted.String())
	assert.Equal(t, "failed", jsonload.PhaseFailed.String())
	assert.Equal(t, "Phase(9)", jsonload.Phase(9).String())
}

func TestSummary_Message(t *testing.T) {
	tests := []struct {
		name    string
		summary jsonload.Summary
		want    string
	}{
		{
			name:    "clean",
			summary: jsonload.Summary{Total: 3, Inserted: 3},
			want:    "All files sent successfully.",
		},
		{
			name:    "one duplicate",
			summary: jsonload.Summary{Total: 3, Inserted: 2, Duplicates: []string{"b.json"}},
			want:    "Process completed. Duplicate files: 1",
		},
		{
			name: "failures only",
			summary: jsonload.Summary{Total: 3, Inserted: 2, Failed: map[jsonload.FailureKind]int{
				jsonload.FailureDecode: 1,
			}},
			want: "Process completed. Failed files: 1",
		},
		{
			name: "everything",
			summary: jsonload.Summary{
				Total:      10,
				Duplicates: []string{"a.json", "b.json"},
				Failed: map[jsonload.FailureKind]int{
					jsonload.FailureDecode:     1,
					jsonload.FailureMissingKey: 1,
					jsonload.FailureStorage:    1,
					jsonload.FailureDisposal:   2,
				},
			},
			want: "Process completed. Duplicate files: 2, Failed files: 3, Undeleted files: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.Message())
		})
	}
}

func TestSummary_Rate(t *testing.T) {
	assert.Zero(t, jsonload.Summary{Total: 10}.Rate())
	assert.InDelta(t, 5.0, jsonload.Summary{Total: 10, Elapsed: 2 * time.Second}.Rate(), 0.0001)
}

func TestSummary_SortedDuplicates(t *testing.T) {
	s := jsonload.Summary{Duplicates: []string{"c", "a", "b"}}
	assert.Equal(t, []string{"a", "b", "c"}, s.SortedDuplicates())
	assert.Equal(t, []string{"c", "a", "b"}, s.Duplicates, "original order untouched")
}
