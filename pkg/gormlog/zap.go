// Package gormlog adapts gorm's logger to the request-scoped zap logger.
package gormlog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/fatflowers/listing-payment/pkg/logctx"
)

const DefaultSlowThreshold = 500 * time.Millisecond

// ZapLogger implements gormlogger.Interface. Statements are logged through
// logctx.FromCtx so they carry the trace id of the request that issued them.
type ZapLogger struct {
	base  *zap.SugaredLogger
	level gormlogger.LogLevel
	slow  time.Duration
}

// New builds a gorm logger. Errors and slow queries are reported unless level
// is Silent; every statement is logged at Info.
func New(base *zap.SugaredLogger, level gormlogger.LogLevel) *ZapLogger {
	return &ZapLogger{base: base, level: level, slow: DefaultSlowThreshold}
}

func (z *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *z
	c.level = level
	return &c
}

func (z *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Info {
		logctx.FromCtx(ctx, z.base).Infow(msg, "args", data)
	}
}

func (z *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Warn {
		logctx.FromCtx(ctx, z.base).Warnw(msg, "args", data)
	}
}

func (z *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Error {
		logctx.FromCtx(ctx, z.base).Errorw(msg, "args", data)
	}
}

// Trace classifies one statement. Missing rows and duplicate keys are
// expected outcomes of lookups and idempotent inserts, not errors.
func (z *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if z.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	lg := logctx.FromCtx(ctx, z.base)
	fields := []interface{}{
		"rows", rows,
		"elapsed_ms", elapsed.Milliseconds(),
		"caller", shortCaller(utils.FileWithLineNum()),
		"sql", sql,
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if z.level >= gormlogger.Info {
			lg.Debugw("gorm_not_found", fields...)
		}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		lg.Infow("gorm_duplicate_key", fields...)
	case err != nil:
		lg.Errorw("gorm_trace", append(fields, "err", err)...)
	case elapsed > z.slow:
		lg.Warnw("gorm_slow", fields...)
	case z.level >= gormlogger.Info:
		lg.Debugw("gorm", fields...)
	}
}

// shortCaller trims a build path to the module-relative part, e.g.
// /src/app/internal/platform/db/postgres.go:38 -> internal/platform/db/postgres.go:38
func shortCaller(s string) string {
	p := filepath.ToSlash(s)
	for _, marker := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.LastIndex(p, marker); i >= 0 {
			return p[i+1:]
		}
	}
	if parts := strings.Split(p, "/"); len(parts) > 3 {
		return strings.Join(parts[len(parts)-3:], "/")
	}
	return p
}
