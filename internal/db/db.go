package db

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"quiz-session-backend/internal/config"
	"quiz-session-backend/internal/model"
)

var (
	conn   *gorm.DB
	connMu sync.RWMutex
)

// InitDBFromConfig opens the postgres connection used by the result collector and
// migrates its tables.
func InitDBFromConfig(cfg *config.APIConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	pool := cfg.DB.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Minute)
	}

	if err := gdb.AutoMigrate(&model.SessionResult{}, &model.ResultAnswer{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	connMu.Lock()
	conn = gdb
	connMu.Unlock()
	return gdb, nil
}

// GetDB returns the connection opened by InitDBFromConfig, or nil.
func GetDB() *gorm.DB {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

// Close releases the pool.
func Close() error {
	gdb := GetDB()
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
