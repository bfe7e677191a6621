// Package zaplog adapts go.uber.org/zap to the core.Logger interface.
package zaplog

import (
	"github.com/Swind/go-executor/core"
	"go.uber.org/zap"
)

// Logger forwards core.Logger calls to a zap.Logger.
type Logger struct {
	base *zap.Logger
}

var _ core.Logger = (*Logger)(nil)

// New wraps base. Passing nil uses zap.NewNop().
func New(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{base: base}
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields ...core.Field) {
	l.base.Debug(msg, toZapFields(fields)...)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields ...core.Field) {
	l.base.Info(msg, toZapFields(fields)...)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields ...core.Field) {
	l.base.Warn(msg, toZapFields(fields)...)
}

// Error logs an error message with optional fields.
func (l *Logger) Error(msg string, fields ...core.Field) {
	l.base.Error(msg, toZapFields(fields)...)
}

func toZapFields(fields []core.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		zf[i] = zap.Any(f.Key, f.Value)
	}
	return zf
}
