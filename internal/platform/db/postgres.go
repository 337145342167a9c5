// Package db opens the payment store and owns its schema.
package db

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/listing-payment/internal/models"
	cfgpkg "github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/gormlog"
)

var errEmptyDSN = errors.New("database dsn is empty")

// Open connects with the pool limits from cfg. Unique violations surface as
// gorm.ErrDuplicatedKey, which the payment repository relies on.
func Open(dialector gorm.Dialector, cfg cfgpkg.DBConfig, log *zap.SugaredLogger, level gormlogger.LogLevel) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlog.New(log, level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return gdb, nil
}

// Migrate creates or updates the payment tables.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.Payment{},
		&models.PaymentTransitionLog{},
		&models.WebhookLog{},
	)
}

func newPostgres(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, errEmptyDSN
	}
	level := gormlogger.Warn
	if cfg.Env == cfgpkg.EnvDev {
		level = gormlogger.Info
	}
	gdb, err := Open(postgres.Open(cfg.Database.DSN), cfg.Database, log, level)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := Migrate(gdb.WithContext(ctx)); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			log.Infow("postgres ready", "max_open_conns", cfg.Database.MaxOpenConns)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				log.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			log.Infow("closing postgres connection pool")
			return sqlDB.Close()
		},
	})
	return gdb, nil
}

var Module = fx.Options(
	fx.Provide(newPostgres),
)
