package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pos/internal/config"
	"pos/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(ctx context.Context, cfg config.Database, log *slog.Logger) (*gorm.DB, error) {
	log.Info("connecting to database", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)

	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connection established")
	return gormDB, nil
}

func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&model.Customer{},
		&model.Product{},
		&model.StockEntry{},
		&model.StockAdjustment{},
		&model.Promotion{},
		&model.Order{},
		&model.OrderLine{},
		&model.Payment{},
		&model.AuditLog{},
	)
}
