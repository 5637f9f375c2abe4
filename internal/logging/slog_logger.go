package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// SlogConfig configures a SlogLogger.
type SlogConfig struct {
	// Writer receives the records. Defaults to os.Stderr.
	Writer io.Writer
	// Verbose enables Debug-level records for Verbose() calls.
	Verbose bool
	// JSON selects the JSON handler, used for log files.
	JSON bool
	// Color selects the tint handler for terminals.
	Color bool
	// Attrs are attached to every record (for example the run id).
	Attrs []any
}

// SlogLogger adapts log/slog to jsonload.Logger. Verbose maps to Debug.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger builds a SlogLogger from cfg.
func NewSlogLogger(cfg SlogConfig) *SlogLogger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	switch {
	case cfg.JSON:
		handler = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{Level: level})
	case cfg.Color:
		handler = tint.NewHandler(cfg.Writer, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		})
	default:
		handler = slog.NewTextHandler(cfg.Writer, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if len(cfg.Attrs) > 0 {
		logger = logger.With(cfg.Attrs...)
	}
	return &SlogLogger{logger: logger}
}

// With returns a logger that adds the given key/value pairs to every record.
func (l *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) Verbose(format string, args ...interface{}) {
	l.logger.Debug(sprintf(format, args))
}

func (l *SlogLogger) Info(format string, args ...interface{}) {
	l.logger.Info(sprintf(format, args))
}

func (l *SlogLogger) Error(format string, args ...interface{}) {
	l.logger.Error(sprintf(format, args))
}

func sprintf(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
