// Package db opens the relational database and manages its schema.
package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options select the driver and tune the connection pool.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Debug logs every statement; otherwise only slow queries and errors.
	Debug bool
}

// Open connects with the configured driver: mysql, postgres or sqlite.
func Open(opts Options) (*gorm.DB, error) {
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	var (
		gormDB *gorm.DB
		err    error
	)
	switch opts.Driver {
	case "", "mysql":
		gormDB, err = NewMySQL(opts.DSN, gormCfg)
	case "postgres":
		gormDB, err = NewPostgres(opts.DSN, gormCfg)
	case "sqlite":
		gormDB, err = NewSQLite(opts.DSN, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return gormDB, nil
}
