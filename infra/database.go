package infra

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	infrarepo "github.com/pennyflow/pennyflow/infra/repository"
	"github.com/pennyflow/pennyflow/pkg/config"
)

// NewDBConnection opens the postgres connection with pool settings suitable
// for a long-running background worker.
func NewDBConnection(cfg config.DB, appEnv string) (*gorm.DB, error) {
	if cfg.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}

	conn, err := gorm.Open(postgres.Open(cfg.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return conn, nil
}

// AutoMigrate creates or updates the scheduler's tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&infrarepo.User{},
		&infrarepo.Account{},
		&infrarepo.Transaction{},
		&infrarepo.Budget{},
	)
}
