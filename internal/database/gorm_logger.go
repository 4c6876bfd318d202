package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger routes GORM's logger.Interface to slog. Successful queries go
// out at Debug, so the SQL firehose only appears when the configured level
// asks for it; the formatting callback is skipped entirely otherwise.
type queryLogger struct{}

// LogMode is a no-op; the effective level comes from slog.
func (q queryLogger) LogMode(logger.LogLevel) logger.Interface { return q }

func (q queryLogger) Info(_ context.Context, msg string, args ...any) {
	slog.Info(fmt.Sprintf(msg, args...))
}

func (q queryLogger) Warn(_ context.Context, msg string, args ...any) {
	slog.Warn(fmt.Sprintf(msg, args...))
}

func (q queryLogger) Error(_ context.Context, msg string, args ...any) {
	slog.Error(fmt.Sprintf(msg, args...))
}

// sqlLogLimit caps the SQL text in a single log line. FTS trigger DDL and
// bulk inserts run long; the middle is elided.
const sqlLogLimit = 200

func elideSQL(sql string) string {
	if len(sql) <= sqlLogLimit {
		return sql
	}
	half := (sqlLogLimit - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}

// Trace runs after every SQL operation. gorm.ErrRecordNotFound is the normal
// empty result of a lookup and is treated as a successful query; everything
// else errors out at Error level with the offending SQL attached.
func (q queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		slog.Error("query failed",
			"sql", elideSQL(sql),
			"rows", rows,
			"duration", elapsed,
			"error", err,
		)
		return
	}

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	slog.Debug("query",
		"sql", elideSQL(sql),
		"rows", rows,
		"duration", elapsed,
	)
}
