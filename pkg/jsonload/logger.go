package jsonload

// Logger provides a pluggable logging interface for ingestion runs.
// Implementations must be safe for concurrent use by multiple goroutines,
// since workers log per-file outcomes in parallel.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs informational messages about normal operations.
	Info(format string, args ...interface{})

	// Error logs error messages.
	Error(format string, args ...interface{})
}
