package retry

import (
	"context"
	"time"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// Executor runs an operation until it succeeds, fails fatally, or the
// strategy runs out of attempts.
type Executor struct {
	classifier jsonload.ErrorClassifier
	strategy   jsonload.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor panics if classifier or strategy is nil.
func NewExecutor(classifier jsonload.ErrorClassifier, strategy jsonload.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy that calls callback before each wait.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithLogger returns a copy that reports each retry through logger.
func (e *Executor) WithLogger(logger jsonload.Logger, what string) *Executor {
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("%s failed (attempt %d): %v; retrying in %s", what, attempt+1, err, delay.Round(time.Millisecond))
	})
}

// Execute returns nil on success, otherwise the last operation error or the
// context error if ctx ends while waiting.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}
	return err
}
