package jsonload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // All files processed (duplicates and per-file failures included)
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitNoInputFiles    = 12 // Input folder contains no .json files
	ExitInterrupted     = 13 // Run cancelled between batches
)

const (
	// DefaultBatchSize is the number of files dispatched together before
	// the scheduler waits and reports progress.
	DefaultBatchSize = 500

	// DefaultWorkers is the number of files processed concurrently within a batch.
	DefaultWorkers = 5

	// DefaultPoolSize is the maximum number of open storage connections.
	DefaultPoolSize = 5

	// DefaultDatabaseName is the database created and used when none is given.
	DefaultDatabaseName = "adres_json_db"

	// TableName is the fixed destination table.
	TableName = "data_json"

	// KeyColumn is the natural key used for duplicate detection.
	KeyColumn = "adresNo"

	// JSONExtension selects input files when listing a folder.
	JSONExtension = ".json"

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the PostgreSQL database used for CREATE DATABASE.
	DefaultManagementDB = "postgres"
)
