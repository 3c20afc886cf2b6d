package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger installs a JSON slog handler on stdout as the slog default
// and routes the package provider through it.
func SetupLogger(loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(os.Stdout, &ops))
	slog.SetDefault(slog.New(handler))
	SetProvider(&slogProvider{handler: handler, level: Level(level)})
	return nil
}

// ToLogLevel parses "debug", "info", "warn" or "error".
func ToLogLevel(level string) (slog.Level, error) {
	switch level {
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// slogLogger adapts a slog.Logger to Logger.
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps handler so that errors passed as the first field get
// a stacktrace attribute.
func NewSlogLogger(handler slog.Handler) Logger {
	return &slogLogger{logger: slog.New(WrapByErrFmtHandler(handler))}
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.logger.Debug(msg, errFirst(fields)...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.logger.Info(msg, errFirst(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.logger.Warn(msg, errFirst(fields)...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.logger.Error(msg, errFirst(fields)...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: s.logger.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}

// errFirst turns a leading bare error into an ErrAttr.
func errFirst(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields))
		out = append(out, ErrAttr(err))
		return append(out, fields[1:]...)
	}
	return fields
}

type slogProvider struct {
	handler slog.Handler
	level   Level
}

func (p *slogProvider) GetLogger() Logger {
	return &slogLogger{logger: slog.New(p.handler)}
}

func (p *slogProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel is a no-op; the slog handler level is fixed at SetupLogger time.
func (p *slogProvider) SetLevel(level Level) {
	p.level = level
}
