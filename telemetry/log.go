// Package telemetry holds the process-scoped, mutex-guarded ambient
// state spec §9 permits: the rate-limited overflow reporter, the
// Tier0 overflow logger, and the frame-leak logger. All three are
// initialized at process start and reset at session start, matching
// the teacher's log/nolog.go adapter shape (wrap github.com/luxfi/log's
// Logger interface, expose a NewNoOpLogger constructor) which this
// package reuses directly for its default, test-friendly logger.
package telemetry

import (
	"context"
	"log/slog"

	logfacade "github.com/luxfi/log"
	"go.uber.org/zap"
)

// NoOpLogger is a no-op implementation of github.com/luxfi/log.Logger,
// adapted in place from the teacher's log/nolog.go. It is the default
// logger for tests and for components constructed without an explicit
// logger.
type NoOpLogger struct{}

var _ logfacade.Logger = NoOpLogger{}

// NewNoOpLogger returns a logger that discards everything.
func NewNoOpLogger() logfacade.Logger { return NoOpLogger{} }

func (NoOpLogger) With(ctx ...interface{}) logfacade.Logger { return NoOpLogger{} }
func (NoOpLogger) New(ctx ...interface{}) logfacade.Logger  { return NoOpLogger{} }
func (NoOpLogger) Log(level slog.Level, msg string, ctx ...interface{}) {}
func (NoOpLogger) WriteLog(level slog.Level, msg string, attrs ...any)  {}
func (NoOpLogger) Trace(msg string, ctx ...interface{})                {}
func (NoOpLogger) Debug(msg string, ctx ...interface{})                {}
func (NoOpLogger) Info(msg string, ctx ...interface{})                 {}
func (NoOpLogger) Warn(msg string, ctx ...interface{})                 {}
func (NoOpLogger) Error(msg string, ctx ...interface{})                {}
func (NoOpLogger) Crit(msg string, ctx ...interface{})                 {}
func (NoOpLogger) Fatal(msg string, fields ...zap.Field)               {}
func (NoOpLogger) Verbo(msg string, ctx ...interface{})                {}
func (n NoOpLogger) WithFields(fields ...zap.Field) logfacade.Logger   { return n }
func (n NoOpLogger) WithOptions(opts ...zap.Option) logfacade.Logger   { return n }
func (NoOpLogger) SetLevel(level slog.Level)                          {}
func (NoOpLogger) GetLevel() slog.Level                                { return slog.Level(0) }
func (NoOpLogger) EnabledLevel(lvl slog.Level) bool                    { return false }
func (NoOpLogger) Enabled(ctx context.Context, level slog.Level) bool  { return false }
func (NoOpLogger) Handler() slog.Handler                               { return nil }
func (NoOpLogger) StopOnPanic()                                        {}
func (NoOpLogger) RecoverAndPanic(f func())                            { f() }
func (NoOpLogger) RecoverAndExit(f, exit func())                       { f() }
func (NoOpLogger) Stop()                                                {}
func (NoOpLogger) Write(p []byte) (n int, err error)                   { return len(p), nil }
