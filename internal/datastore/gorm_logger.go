package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// gormLogger routes GORM diagnostics into the application logger.
type gormLogger struct {
	log   logger.Logger
	level gorm_logger.LogLevel
}

func newGormLogger(log logger.Logger, debug bool) gorm_logger.Interface {
	level := gorm_logger.Warn
	if debug {
		level = gorm_logger.Info
	}
	return &gormLogger{log: log, level: level}
}

func (g *gormLogger) LogMode(level gorm_logger.LogLevel) gorm_logger.Interface {
	return &gormLogger{log: g.log, level: level}
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gorm_logger.Info {
		g.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gorm_logger.Warn {
		g.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gorm_logger.Error {
		g.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gorm_logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gorm_logger.Error:
		sql, rows := fc()
		g.log.Error("query failed",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
	case elapsed > slowQueryThreshold && g.level >= gorm_logger.Warn:
		sql, rows := fc()
		g.log.Warn("slow query",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed))
	case g.level >= gorm_logger.Info:
		sql, rows := fc()
		g.log.Debug("query",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed))
	}
}
