package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nearme/api/logger"
)

// DefaultSlowQueryThreshold is the duration above which gorm statements are
// logged as slow.
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// gormZapLogger sends gorm's statement and driver logs to the process zap
// logger.
type gormZapLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(level gormlogger.LogLevel, slowThreshold time.Duration) gormlogger.Interface {
	return &gormZapLogger{level: level, slowThreshold: slowThreshold}
}

func (l *gormZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormZapLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.Info(fmt.Sprintf(msg, args...), zap.String("component", "gorm"))
	}
}

func (l *gormZapLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.Warn(fmt.Sprintf(msg, args...), zap.String("component", "gorm"))
	}
}

func (l *gormZapLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.Error(fmt.Sprintf(msg, args...), zap.String("component", "gorm"))
	}
}

func (l *gormZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	fields := func() []zap.Field {
		sql, rows := fc()
		return []zap.Field{
			zap.String("component", "gorm"),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		}
	}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		logger.Error("gorm statement failed", append(fields(), zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		logger.Warn("slow gorm statement", append(fields(), zap.Duration("threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		logger.Debug("gorm statement", fields()...)
	}
}
