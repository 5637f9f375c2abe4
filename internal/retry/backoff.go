package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// ExponentialBackoff grows the delay by multiplier per attempt, capped at
// maxDelay, with +/- jitter applied last.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	maxAttempts  int     // -1 = unlimited, 0 = no retries
	jitter       float64 // fraction of the delay, 0.1 = +/-10%
	random       func() float64
}

// BackoffOption configures an ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc replaces the random source; it must return values in [0, 1).
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.random = f }
}

// NewExponentialBackoff starts from the package defaults in jsonload and applies opts.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: jsonload.DefaultRetryInitialDelay,
		maxDelay:     jsonload.DefaultRetryMaxDelay,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		random:       rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns the wait before retry number attempt (zero-based).
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if limit := float64(b.maxDelay); delay > limit {
		delay = limit
	}
	if b.jitter > 0 {
		offset := b.random()*2 - 1 // [-1, 1)
		delay *= 1 + b.jitter*offset
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func (b *ExponentialBackoff) MaxAttempts() int { return b.maxAttempts }

func (b *ExponentialBackoff) InitialDelay() time.Duration { return b.initialDelay }

func (b *ExponentialBackoff) MaxDelay() time.Duration { return b.maxDelay }

var _ jsonload.BackoffStrategy = (*ExponentialBackoff)(nil)
