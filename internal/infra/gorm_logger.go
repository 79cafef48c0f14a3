package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ordermgmt/internal/logger"

	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

// GormZapLogger GORM 日志适配器，输出到持久层日志分类
type GormZapLogger struct {
	ZapLogger                 *zap.Logger
	LogLevel                  gormLogger.LogLevel
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

// LogMode 设置日志级别
func (l *GormZapLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info 日志
func (l *GormZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.with(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

// Warn 日志
func (l *GormZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.with(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

// Error 日志
func (l *GormZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.with(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace SQL 执行日志
func (l *GormZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	log := l.with(ctx)

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && (!errors.Is(err, gormLogger.ErrRecordNotFound) || !l.IgnoreRecordNotFoundError):
		if l.LogLevel >= gormLogger.Error {
			log.Error("SQL 执行错误", append(fields, zap.Error(err))...)
		}
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold:
		if l.LogLevel >= gormLogger.Warn {
			log.Warn("SQL 慢查询", fields...)
		}
	case l.LogLevel >= gormLogger.Info:
		log.Info("SQL 执行", fields...)
	}
}

// with 附加 trace_id
func (l *GormZapLogger) with(ctx context.Context) *zap.Logger {
	log := l.ZapLogger
	if log == nil {
		log = logger.Database()
	}
	if ctx != nil {
		if traceID := logger.GetTraceID(ctx); traceID != "" {
			log = log.With(zap.String("trace_id", traceID))
		}
	}
	return log
}
