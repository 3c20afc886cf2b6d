// Package log provides the structured logging interface used across wndgo.
//
// The interface is slog-compatible so that callers can plug in log/slog
// handlers, while the default backend is zerolog. Experiment drivers attach
// experiment and split context with With and emit one record per split.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("experiment").With(
//	    log.ExperimentKey, "shuffle split",
//	    log.MethodKey, "wnd",
//	)
//	logger.Info("split scored",
//	    log.IterationKey, 3,
//	    log.TrainSamplesKey, 750,
//	    log.TestSamplesKey, 250,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// All methods take a message and optional key-value pairs. With returns a
// child logger carrying the given pairs on every subsequent record.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error value it is recorded under the error
	// key together with its stack trace when one is available.
	//
	// Example:
	//   logger.Error("split failed",
	//       err,
	//       log.IterationKey, 4,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	// Use it to skip building expensive fields such as per-sample dumps.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. The package-level
// GetLogger family delegates to the installed provider.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
