// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger writes structured key-value log records.
type Logger interface {
	With(ctx ...any) Logger

	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

var root atomic.Pointer[logger]

func init() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	root.Store(&logger{slog.New(handler), level})
}

type logger struct {
	inner *slog.Logger
	level *slog.LevelVar
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...), l.level}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Debug(msg string, ctx ...any) { l.write(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(slog.LevelError, msg, ctx) }

// WithContext returns a logger carrying the given context pairs, typically
// ("pkg", name) at package scope.
func WithContext(ctx ...any) Logger {
	return root.Load().With(ctx...)
}

// SetVerbosity sets the global log level: 0=error 1=warn 2=info 3+=debug.
func SetVerbosity(v int) error {
	switch {
	case v == 0:
		root.Load().level.Set(slog.LevelError)
	case v == 1:
		root.Load().level.Set(slog.LevelWarn)
	case v == 2:
		root.Load().level.Set(slog.LevelInfo)
	case v >= 3 && v <= 9:
		root.Load().level.Set(slog.LevelDebug)
	default:
		return fmt.Errorf("verbosity out of range [0-9]: %d", v)
	}
	return nil
}
