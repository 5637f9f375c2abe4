package logging

import (
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// FluentConfig holds the collector address for FluentLogger.
type FluentConfig struct {
	Host      string
	Port      int
	TagPrefix string
	Verbose   bool
	// Fields are added to every posted record.
	Fields map[string]interface{}
}

// FluentPoster is the subset of *fluent.Fluent used by FluentLogger.
type FluentPoster interface {
	Post(tag string, message interface{}) error
	Close() error
}

// FluentLogger forwards log lines to Fluentd or Fluent Bit. The level is
// used as the tag, so records arrive as <prefix>.info, <prefix>.error, etc.
// Post failures are dropped; the collector is best effort.
type FluentLogger struct {
	client  FluentPoster
	verbose bool
	fields  map[string]interface{}
	now     func() time.Time
}

// NewFluentLogger dials the collector described by cfg.
func NewFluentLogger(cfg FluentConfig) (*FluentLogger, error) {
	if cfg.TagPrefix == "" {
		return nil, fmt.Errorf("fluent tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.Host,
		FluentPort: cfg.Port,
		TagPrefix:  cfg.TagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fluent client: %w", err)
	}
	return NewFluentLoggerWithClient(client, cfg.Verbose, cfg.Fields), nil
}

// NewFluentLoggerWithClient wraps an existing client.
func NewFluentLoggerWithClient(client FluentPoster, verbose bool, fields map[string]interface{}) *FluentLogger {
	return &FluentLogger{client: client, verbose: verbose, fields: fields, now: time.Now}
}

func (l *FluentLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.post("verbose", sprintf(format, args))
}

func (l *FluentLogger) Info(format string, args ...interface{}) {
	l.post("info", sprintf(format, args))
}

func (l *FluentLogger) Error(format string, args ...interface{}) {
	l.post("error", sprintf(format, args))
}

// Close flushes pending records and closes the connection.
func (l *FluentLogger) Close() error {
	return l.client.Close()
}

func (l *FluentLogger) post(level, msg string) {
	data := make(map[string]interface{}, len(l.fields)+3)
	for k, v := range l.fields {
		data[k] = v
	}
	data["level"] = level
	data["message"] = msg
	data["timestamp"] = l.now().UTC().Format(time.RFC3339Nano)
	_ = l.client.Post(level, data)
}
