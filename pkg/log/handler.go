package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"

	wnderrors "github.com/YuminosukeSato/wndgo/pkg/errors"
)

// ErrFmtHandler is a slog handler to format stacktrace from cockroachdb/errors.
// It also records the concrete wndgo error kind under ErrorTypeKey.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler function wraps the standard slog handler.
// This function returns the slog handler which emits logs with a stacktrace attribute.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var stacktrace, kind string
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			err, ok := attr.Value.Any().(error)
			if ok {
				stacktrace = extractStacktrace(err)
				kind = errorKind(err)
			}
			return false
		}
		return true
	})
	if stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	if kind != "" {
		r.AddAttrs(slog.String(ErrorTypeKey, kind))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// errorKind はエラーチェーンを下の switch の順に照合し、最初に一致した
// 構造化エラー型の名前を返します（例: "ValidationError"）。どれにも一致しなければ空文字列。
func errorKind(err error) string {
	var (
		validation *wnderrors.ValidationError
		value      *wnderrors.ValueError
		degenerate *wnderrors.DegenerateInputError
		notReady   *wnderrors.NotReadyError
		panicErr   *wnderrors.PanicError
	)
	var target any
	switch {
	case wnderrors.As(err, &validation):
		target = validation
	case wnderrors.As(err, &value):
		target = value
	case wnderrors.As(err, &degenerate):
		target = degenerate
	case wnderrors.As(err, &notReady):
		target = notReady
	case wnderrors.As(err, &panicErr):
		target = panicErr
	default:
		return ""
	}
	name := fmt.Sprintf("%T", target)
	return name[strings.LastIndex(name, ".")+1:]
}
