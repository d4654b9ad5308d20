package data

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/resilience"
)

// ClickHouseClient ClickHouse 客户端，未启用时为 nil
type ClickHouseClient struct {
	conn driver.Conn
}

// NewClickHouseClient 创建 ClickHouse 客户端
func NewClickHouseClient(cfg *conf.Config, logger *zap.Logger) (*ClickHouseClient, func(), error) {
	if !cfg.ClickHouse.Enabled {
		logger.Info("clickhouse disabled, query audit goes to no-op sink")
		return nil, func() {}, nil
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.ClickHouse.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
		},
		DialTimeout:     cfg.ClickHouse.DialTimeout,
		MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
		MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	policy := resilience.DefaultRetryPolicy()
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("clickhouse not reachable, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	if err := resilience.Retry(context.Background(), policy, conn.Ping); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	client := &ClickHouseClient{conn: conn}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close clickhouse", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// Exec 执行语句
func (c *ClickHouseClient) Exec(ctx context.Context, query string, args ...interface{}) error {
	return c.conn.Exec(ctx, query, args...)
}

// Ping 检查连接
func (c *ClickHouseClient) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close 关闭连接
func (c *ClickHouseClient) Close() error {
	return c.conn.Close()
}
