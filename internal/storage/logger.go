package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm/logger"

	"olympiad-bot/internal/util/slogx"
)

type slogLogger struct {
	log  *slog.Logger
	slow time.Duration
}

func Logger(log *slog.Logger, o Options) logger.Interface {
	return &slogLogger{log: log, slow: o.SlowThreshold}
}

func (l *slogLogger) LogMode(logger.LogLevel) logger.Interface {
	return l
}

func (l *slogLogger) Info(ctx context.Context, msg string, data ...any) {
	l.log.InfoContext(ctx, "gorm info", slog.String("msg", fmt.Sprintf(msg, data...)))
}

func (l *slogLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.log.WarnContext(ctx, "gorm warn", slog.String("msg", fmt.Sprintf(msg, data...)))
}

func (l *slogLogger) Error(ctx context.Context, msg string, data ...any) {
	l.log.ErrorContext(ctx, "gorm error", slog.String("msg", fmt.Sprintf(msg, data...)))
}

func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, logger.ErrRecordNotFound):
		sql, _ := fc()
		l.log.ErrorContext(ctx, "sql error", slog.Duration("elapsed", elapsed), slogx.Err(err), slog.String("sql", sql))
	case l.slow > 0 && elapsed > l.slow:
		sql, rows := fc()
		l.log.WarnContext(ctx, "slow sql", slog.Duration("elapsed", elapsed), slog.Int64("rows", rows), slog.String("sql", sql))
	}
}
