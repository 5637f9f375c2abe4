package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

func TestExponentialBackoff_Defaults(t *testing.T) {
	b := NewExponentialBackoff(3)
	assert.Equal(t, 3, b.MaxAttempts())
	assert.Equal(t, jsonload.DefaultRetryInitialDelay, b.InitialDelay())
	assert.Equal(t, jsonload.DefaultRetryMaxDelay, b.MaxDelay())
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(1*time.Second),
		WithJitter(0),
	)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1 * time.Second},
		{10, 1 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	low := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0 }))
	high := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0.5 }))
	multiplied := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithMultiplier(3), WithJitter(0))

	assert.Equal(t, 900*time.Millisecond, low.NextDelay(0))
	assert.Equal(t, time.Second, high.NextDelay(0))
	assert.Equal(t, 3*time.Second, multiplied.NextDelay(1))
}
