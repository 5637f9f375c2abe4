// Package logging provides concrete implementations of the jsonload.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: plain prefixed lines on stderr
//   - SlogLogger: structured records through log/slog (tinted console or JSON file)
//   - FluentLogger: forwards records to a Fluentd/Fluent Bit collector
//   - MultiLogger: fans every call out to several loggers
//   - NullLogger: discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
