package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/data"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/server"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/database"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/health"
)

// checkTimeout 单个依赖检查的超时
const checkTimeout = 3 * time.Second

// App 应用程序
type App struct {
	Logger     *zap.Logger
	HTTPServer *server.HTTPServer
	Health     *health.HealthChecker
}

// NewApp 创建应用程序
func NewApp(logger *zap.Logger, httpServer *server.HTTPServer, checker *health.HealthChecker) *App {
	return &App{
		Logger:     logger,
		HTTPServer: httpServer,
		Health:     checker,
	}
}

// NewHealthChecker 注册依赖检查
// 数据库为关键依赖；Redis 只在作为缓存后端时为关键依赖；ClickHouse 只用于审计。
func NewHealthChecker(cfg *conf.Config, db *gorm.DB, redisClient *redis.Client, ch *data.ClickHouseClient) *health.HealthChecker {
	checker := health.NewHealthChecker(checkTimeout)
	if db != nil {
		checker.Register(health.NewPingChecker("database", true, func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}))
	}
	if redisClient != nil {
		critical := cfg.Cache.Backend == conf.CacheBackendRedis
		checker.Register(health.NewPingChecker("redis", critical, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}
	if ch != nil {
		checker.Register(health.NewPingChecker("clickhouse", false, ch.Ping))
	}
	return checker
}

// Start 启动前检查依赖，失败只记录日志
func (a *App) Start(ctx context.Context) error {
	for _, result := range a.Health.Check(ctx) {
		if result.Status != health.StatusHealthy {
			a.Logger.Warn("dependency not healthy at startup",
				zap.String("check", result.Name),
				zap.Bool("critical", result.Critical),
				zap.String("error", result.Error),
			)
		}
	}
	a.Logger.Info("Application started successfully")
	return nil
}
