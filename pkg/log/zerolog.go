package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	wnderrors "github.com/YuminosukeSato/wndgo/pkg/errors"
)

// zerologLogger は Logger インターフェースを zerolog で実装したものです。
type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger は w に JSON 形式で出力する zerolog ベースのロガーを作成します。
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{logger: zl}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.logger.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	z.emit(z.logger.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.logger.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	z.emit(z.logger.Error(), msg, fields)
}

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			ctx = ctx.Str(key, err.Error())
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{logger: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.logger.GetLevel()
}

// emit はフィールドをイベントに追加して出力します。
// 先頭がerrorの場合はエラーとスタックトレースを記録します。
func (z *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = withError(e, err)
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func withError(e *zerolog.Event, err error) *zerolog.Event {
	e = e.Err(err)
	if st := extractStacktrace(err); st != "" {
		e = e.Str(StacktraceKey, st)
	}
	if m, ok := unwrapMarshaler(err); ok {
		e = e.EmbedObject(m)
	}
	return e
}

// unwrapMarshaler は構造化エラー型（ValidationErrorなど）を取り出します。
func unwrapMarshaler(err error) (zerolog.LogObjectMarshaler, bool) {
	var m zerolog.LogObjectMarshaler
	if wnderrors.As(err, &m) {
		return m, true
	}
	return nil, false
}

// ===========================================================================
//
//	グローバルプロバイダ
//
// ===========================================================================

// zerologProvider はデフォルトの LoggerProvider です。
type zerologProvider struct {
	mu    sync.RWMutex
	w     io.Writer
	level Level
	root  Logger
}

func newZerologProvider(w io.Writer, level Level) *zerologProvider {
	return &zerologProvider{w: w, level: level, root: NewZerologLogger(w, level)}
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.root = NewZerologLogger(p.w, level)
}

var (
	providerMu sync.RWMutex
	// ライブラリとして使われる前提のため、既定では警告以上のみ出力する
	provider LoggerProvider = newZerologProvider(os.Stderr, LevelWarn)
)

// GetLogger は現在のプロバイダからデフォルトのロガーを返します。
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName はコンポーネント名付きのロガーを返します。
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetLevel は現在のプロバイダの出力レベルを変更します。
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	provider.SetLevel(level)
}

// SetProvider はグローバルプロバイダを差し替えます。テストでは TestLoggerProvider を渡します。
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// SetOutput は既定のzerologプロバイダを w への出力で作り直します。
func SetOutput(w io.Writer, level Level) {
	SetProvider(newZerologProvider(w, level))
}

// RouteWarnings は pkg/errors の警告をグローバルロガーの Warn レベルに流します。
// 構造化警告型は zerolog オブジェクトとして展開されます。
func RouteWarnings() {
	wnderrors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), "warning", w)
	})
}

// fixedProvider は単一のロガーを返すプロバイダです。
type fixedProvider struct {
	logger Logger
}

func (p fixedProvider) GetLogger() Logger { return p.logger }

func (p fixedProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel はロガー自体の設定に従うため何もしません。
func (p fixedProvider) SetLevel(Level) {}

// SetLogger は任意の Logger 実装をグローバルロガーとして設定します。
func SetLogger(l Logger) {
	SetProvider(fixedProvider{logger: l})
}
