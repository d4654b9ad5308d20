package data

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/database"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/resilience"
)

// NewDB 创建数据库连接，启动时按退避策略重试
func NewDB(cfg *conf.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		LogLevel:        cfg.Database.LogLevel,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	policy := resilience.DefaultRetryPolicy()
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("database not reachable, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	var db *gorm.DB
	err := resilience.Retry(context.Background(), policy, func(context.Context) error {
		var err error
		db, err = database.NewDB(dbConfig, logger)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		logger.Info("database connection closed")
	}
	return db, cleanup, nil
}
