package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's query log through zap
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger creates a gorm logger; a zero threshold disables slow-query warnings
func NewGormLogger(l *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		logger:        l.Named("gorm"),
		level:         level,
		slowThreshold: slowThreshold,
	}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Info {
		FromContext(ctx, g.logger).Sugar().Infof(msg, data...)
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Warn {
		FromContext(ctx, g.logger).Sugar().Warnf(msg, data...)
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Error {
		FromContext(ctx, g.logger).Sugar().Errorf(msg, data...)
	}
}

// Trace logs failed statements as errors and slow ones as warnings.
// Record-not-found is expected control flow and never logged.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	l := FromContext(ctx, g.logger)

	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		l.Error("SQL error", zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		l.Warn("Slow SQL", zap.Duration("elapsed", elapsed), zap.Duration("threshold", g.slowThreshold), zap.Int64("rows", rows), zap.String("sql", sql))
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		l.Debug("SQL", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}

// GormLevel maps the application log level onto gorm's coarser levels
func GormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

var _ gormlogger.Interface = (*GormLogger)(nil)
