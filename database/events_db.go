package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nearme/api/config"
)

// OpenEventDB opens the relational database used as the durable event store
// when EVENT_STORE_DRIVER is postgres or sqlite.
func OpenEventDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: newGormLogger(gormlogger.Warn, DefaultSlowQueryThreshold),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.EventStore.Driver {
	case config.DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.Postgres.URL), gormCfg)
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.EventStore.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.EventStore.SQLitePath+"?_busy_timeout=5000"), gormCfg)
	default:
		return nil, fmt.Errorf("event store driver %q is not relational", cfg.EventStore.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s event database: %w", cfg.EventStore.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.EventStore.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
	}

	return db, nil
}
