package logging

import "github.com/vvka-141/jsonload/pkg/jsonload"

// MultiLogger sends every call to each wrapped logger in order.
type MultiLogger struct {
	loggers []jsonload.Logger
}

// NewMultiLogger drops nil entries and returns the single logger unchanged
// when only one remains.
func NewMultiLogger(loggers ...jsonload.Logger) jsonload.Logger {
	var kept []jsonload.Logger
	for _, l := range loggers {
		if l != nil {
			kept = append(kept, l)
		}
	}
	switch len(kept) {
	case 0:
		return NewNullLogger()
	case 1:
		return kept[0]
	}
	return &MultiLogger{loggers: kept}
}

func (m *MultiLogger) Verbose(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Verbose(format, args...)
	}
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Info(format, args...)
	}
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Error(format, args...)
	}
}

// NullLogger drops everything. NewMultiLogger returns one when given no loggers.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (*NullLogger) Verbose(string, ...interface{}) {}
func (*NullLogger) Info(string, ...interface{})    {}
func (*NullLogger) Error(string, ...interface{})   {}

var (
	_ jsonload.Logger = (*ConsoleLogger)(nil)
	_ jsonload.Logger = (*NullLogger)(nil)
	_ jsonload.Logger = (*SlogLogger)(nil)
	_ jsonload.Logger = (*FluentLogger)(nil)
	_ jsonload.Logger = (*MultiLogger)(nil)
)
