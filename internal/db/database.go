package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/afhamha/afhamha/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultTxTimeout = 30 * time.Second
)

// Database wraps the gorm handle and, for postgres, the pgx pool behind it
type Database struct {
	Gorm   *gorm.DB
	Pool   *pgxpool.Pool
	Driver string
	logger zerolog.Logger
}

// Open connects to postgres when a database url is configured, otherwise to the sqlite file
func Open(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Database, error) {
	gormLogger, err := NewGormLogger(lgr, cfg.Database.LogLevel)
	if err != nil {
		lgr.Warn().Err(err).Msg("Invalid database log level, using default")
	}
	gormCfg := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if cfg.UsesPostgres() {
		gdb, pool, err := openPostgres(ctx, cfg, gormCfg, lgr)
		if err != nil {
			return nil, err
		}
		return &Database{Gorm: gdb, Pool: pool, Driver: DriverPostgres, logger: lgr}, nil
	}

	gdb, err := OpenSQLite(cfg.Database.SQLitePath, gormCfg)
	if err != nil {
		return nil, err
	}
	return &Database{Gorm: gdb, Driver: DriverSQLite, logger: lgr}, nil
}

// OpenSQLite opens a sqlite database with foreign keys enforced
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	if gormCfg == nil {
		gormCfg = &gorm.Config{TranslateError: true}
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite handle: %w", err)
	}
	// sqlite serialises writers
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}

// Ping checks the underlying connection
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the sql handle and the pgx pool
func (d *Database) Close() {
	if d.Gorm != nil {
		if sqlDB, err := d.Gorm.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				d.logger.Warn().Err(err).Msg("Failed to close database handle")
			}
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// TransactionFn is a function that executes within a transaction
type TransactionFn func(ctx context.Context, tx *gorm.DB) error

// WithTransaction runs fn in a transaction, rolling back when it returns an error or panics
func (d *Database) WithTransaction(ctx context.Context, fn TransactionFn) error {
	return WithTransaction(ctx, d.Gorm, fn)
}

// WithTransaction runs fn in a transaction on the given handle
func WithTransaction(ctx context.Context, gdb *gorm.DB, fn TransactionFn) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
}
