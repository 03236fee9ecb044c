// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger carries a structured logger through a context and provides
// shortcuts for logging with it.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logf is the basic logger type: a printf-like func. Like [log.Printf], the
// format need not end in a newline. Logf functions must be safe for concurrent
// use.
type Logf func(format string, args ...any)

// Write implements the [io.Writer] interface.
func (f Logf) Write(p []byte) (n int, err error) {
	f("%s", p)
	return len(p), nil
}

// Logger is a [slog.Logger] with an adjustable level.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar
}

// New returns a Logger that writes text records to w at info level.
func New(w io.Writer) *Logger {
	lvl := new(slog.LevelVar)
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})),
		Level:  lvl,
	}
}

type ctxKey struct{}

var defaultLogger = New(os.Stderr)

// Put returns a copy of ctx that carries l.
func Put(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Get returns the Logger stored in ctx, or a default one writing to
// standard error.
func Get(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// Debug logs at debug level with the logger from ctx.
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// Info logs at info level with the logger from ctx.
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs at warn level with the logger from ctx.
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// Error logs at error level with the logger from ctx.
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
