package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adminapi/migrations"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	LogSQL       bool
}

// NewConnection opens a gorm pool on Postgres and waits until it answers a ping.
// Unique-index violations surface as gorm.ErrDuplicatedKey.
func NewConnection(ctx context.Context, dsn string, opts Options, log *logrus.Logger) (*gorm.DB, error) {
	level := gormlogger.Silent
	if opts.LogSQL {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	const (
		attempts = 10
		backoff  = 500 * time.Millisecond
	)
	for i := 0; i < attempts; i++ {
		if err = sqlDB.PingContext(ctx); err == nil {
			return db, nil
		}
		log.WithError(err).WithField("attempt", i+1).Warn("postgres not ready")
		time.Sleep(backoff)
	}

	return nil, fmt.Errorf("ping postgres: %w", err)
}

// Migrate applies the embedded goose migrations.
func Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(sqlDB, "."); err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
