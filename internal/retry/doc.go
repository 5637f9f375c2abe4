// Package retry retries storage connection establishment with exponential
// backoff. It is used while opening a pool, never for per-file work.
//
//	classifier := retry.NewConnectionErrorClassifier()
//	executor := retry.NewExecutor(classifier, retry.NewExponentialBackoff(3))
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
//
// Executor instances are safe for concurrent use. WithOnRetry returns a copy.
package retry
