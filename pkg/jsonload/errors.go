package jsonload

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for run-level failure scenarios.
// These enable callers to distinguish error types using errors.Is().
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoFiles indicates the run was started with an empty file list.
	ErrNoFiles = errors.New("no input files")

	// ErrConnectionFailed indicates the storage could not be reached or prepared.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedDriver indicates no storage backend is registered under the requested name.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrKeyConflict indicates an insert lost a race on the adresNo primary key.
	ErrKeyConflict = errors.New("key already exists")
)

// DecodeError reports a file that is unreadable, not valid JSON, or not
// shaped like an address record.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MissingKeyError reports a record without a usable natural key.
type MissingKeyError struct {
	Path  string
	Field string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("decode %s: required field %q is missing or null", e.Path, e.Field)
}

// StorageError reports a failed storage operation. Path is empty for
// run-level failures such as opening the pool.
type StorageError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DisposalError reports a committed record whose source file could not be removed.
type DisposalError struct {
	Path string
	Err  error
}

func (e *DisposalError) Error() string {
	return fmt.Sprintf("remove %s: %v", e.Path, e.Err)
}

func (e *DisposalError) Unwrap() error { return e.Err }

// FailureKind names the per-file failure categories counted in a Summary.
type FailureKind string

const (
	FailureDecode     FailureKind = "decode"
	FailureMissingKey FailureKind = "missing_key"
	FailureStorage    FailureKind = "storage"
	FailureDisposal   FailureKind = "disposal"
)

// KindOf classifies a per-file error. It returns "" for errors outside the taxonomy.
func KindOf(err error) FailureKind {
	var (
		decodeErr   *DecodeError
		missingErr  *MissingKeyError
		storageErr  *StorageError
		disposalErr *DisposalError
	)
	switch {
	case errors.As(err, &missingErr):
		return FailureMissingKey
	case errors.As(err, &decodeErr):
		return FailureDecode
	case errors.As(err, &disposalErr):
		return FailureDisposal
	case errors.As(err, &storageErr):
		return FailureStorage
	}
	return ""
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedDriver):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrNoFiles):
		return ExitNoInputFiles
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	}

	errStr := err.Error()
	for _, p := range usageErrorPatterns {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// cobra reports flag and argument problems as plain errors.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"missing required argument",
	"invalid argument",
}
