// Package logger holds the process-wide structured logger.
package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// Init replaces the no-op logger with a JSON production logger when env is
// "production", and a human-readable development logger otherwise.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	current.Store(l)
	return nil
}

// Set installs l as the process logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

// L returns the process logger.
func L() *zap.Logger {
	return current.Load()
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}
