package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	defaultGormLogLevel  = gormlogger.Warn
)

// gormZerologLogger routes gorm's query log through zerolog
type gormZerologLogger struct {
	logger                    zerolog.Logger
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
	logLevel                  gormlogger.LogLevel
}

// NewGormLogger builds a gorm logger at the given level. An unknown level falls back to warn and is reported.
func NewGormLogger(lgr zerolog.Logger, levelValue string) (gormlogger.Interface, error) {
	level := defaultGormLogLevel
	var levelErr error
	if strings.TrimSpace(levelValue) != "" {
		level, levelErr = parseGormLogLevel(levelValue)
	}
	return &gormZerologLogger{
		logger:                    lgr.With().Str("component", "gorm").Logger(),
		slowThreshold:             defaultSlowThreshold,
		ignoreRecordNotFoundError: true,
		logLevel:                  level,
	}, levelErr
}

func (l *gormZerologLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *gormZerologLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.enabled(gormlogger.Info) {
		l.logger.Info().Msg(fmt.Sprintf(msg, data...))
	}
}

func (l *gormZerologLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.enabled(gormlogger.Warn) {
		l.logger.Warn().Msg(fmt.Sprintf(msg, data...))
	}
}

func (l *gormZerologLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.enabled(gormlogger.Error) {
		l.logger.Error().Msg(fmt.Sprintf(msg, data...))
	}
}

func (l *gormZerologLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel == gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil:
		if l.ignoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}
		if l.enabled(gormlogger.Error) {
			l.logger.Error().Err(err).
				Dur("elapsed", elapsed).
				Int64("rows", rows).
				Str("sql", sql).
				Msg("gorm query error")
		}
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		if l.enabled(gormlogger.Warn) {
			l.logger.Warn().
				Dur("elapsed", elapsed).
				Dur("threshold", l.slowThreshold).
				Int64("rows", rows).
				Str("sql", sql).
				Msg("gorm slow query")
		}
	default:
		if l.enabled(gormlogger.Info) {
			l.logger.Debug().
				Dur("elapsed", elapsed).
				Int64("rows", rows).
				Str("sql", sql).
				Msg("gorm query")
		}
	}
}

func (l *gormZerologLogger) enabled(level gormlogger.LogLevel) bool {
	return l.logLevel != gormlogger.Silent && l.logLevel >= level
}

func parseGormLogLevel(value string) (gormlogger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "silent":
		return gormlogger.Silent, nil
	case "error":
		return gormlogger.Error, nil
	case "warn":
		return gormlogger.Warn, nil
	case "info":
		return gormlogger.Info, nil
	default:
		return defaultGormLogLevel, fmt.Errorf("invalid gorm log level %q", value)
	}
}
