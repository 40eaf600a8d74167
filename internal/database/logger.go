package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"myblog/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which a statement is logged as
// a warning and counted in myblog_db_slow_queries_total.
const SlowQueryThreshold = 200 * time.Millisecond

// slogLogger sends GORM output to slog so that SQL lines carry the request
// and trace IDs of the calling handler.
type slogLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a GORM logger writing to l at level.
func NewGormLogger(l *slog.Logger, level logger.LogLevel) logger.Interface {
	return &slogLogger{log: l, level: level, slow: SlowQueryThreshold}
}

func (l *slogLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *slogLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, data)
}

func (l *slogLogger) printf(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, data []interface{}) {
	if l.level >= min {
		l.log.Log(ctx, level, fmt.Sprintf(msg, data...))
	}
}

// Trace reports one statement. Missing rows are expected on permalink and
// tag lookups and are never logged as errors.
func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	slow := l.slow > 0 && elapsed > l.slow
	if slow {
		observability.SlowQueries.Inc()
	}

	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	var level slog.Level
	var msg string
	switch {
	case failed && l.level >= logger.Error:
		level, msg = slog.LevelError, "query failed"
	case slow && l.level >= logger.Warn:
		level, msg = slog.LevelWarn, "slow query"
	case l.level >= logger.Info:
		level, msg = slog.LevelDebug, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if failed {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.log.LogAttrs(ctx, level, msg, attrs...)
}
