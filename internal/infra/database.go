package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anikmoz/green-firm-house/internal/model"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// NewDatabase opens a GORM connection and migrates the schema. DSNs
// starting with "sqlite:" open an embedded SQLite database (e.g.
// "sqlite::memory:"), anything else is handed to the postgres driver.
// The connection attempt is retried tries times with a constant backoff
// so the backend can start before the database accepts connections.
func NewDatabase(ctx context.Context, dsn string, tries int, backoff time.Duration) (*gorm.DB, error) {
	if tries < 1 {
		tries = 1
	}

	var db *gorm.DB
	retry := retrier.New(retrier.ConstantBackoff(tries-1, backoff), nil)
	err := retry.RunCtx(ctx, func(ctx context.Context) error {
		var err error
		db, err = open(dsn)
		if err != nil {
			log.Warn().Err(err).Msg("database not reachable, retrying")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.ProductType{},
		&model.Customer{},
		&model.CustomerBought{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}
	return db, nil
}

func open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	if strings.HasPrefix(dsn, sqlitePrefix) {
		db, err := gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix)), cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// An in-memory database lives and dies with its single connection.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
