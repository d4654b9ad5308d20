package data

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/events"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/redact"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/resilience"
)

const insertQueryLogSQL = `INSERT INTO chat_queries
	(id, tenant_id, message, source, metric_key, cached, latency_ms, error_reason, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// execer 写入 ClickHouse 的最小接口
type execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
}

// ClickHouseQueryLogRepository 将聊天查询写入 ClickHouse
type ClickHouseQueryLogRepository struct {
	db      execer
	breaker *resilience.Breaker
	redact  redact.Config
}

// NewQueryLogRepository 按启用的目标组合查询审计仓储，均未启用时返回空实现
func NewQueryLogRepository(cfg *conf.Config, client *ClickHouseClient, publisher events.Publisher, logger *zap.Logger) domain.QueryLogRepository {
	var sinks multiQueryLog
	if client != nil {
		sinks = append(sinks, newClickHouseQueryLog(cfg, client, logger))
	}
	if publisher != nil {
		sinks = append(sinks, NewEventQueryLogRepository(publisher))
	}
	switch len(sinks) {
	case 0:
		return NoopQueryLogRepository{}
	case 1:
		return sinks[0]
	default:
		return sinks
	}
}

func newClickHouseQueryLog(cfg *conf.Config, client *ClickHouseClient, logger *zap.Logger) *ClickHouseQueryLogRepository {
	breakerCfg := resilience.BreakerConfig{
		Name:         "clickhouse-query-log",
		MaxRequests:  cfg.Resilience.CircuitBreaker.MaxRequests,
		Interval:     cfg.Resilience.CircuitBreaker.Interval,
		Timeout:      cfg.Resilience.CircuitBreaker.Timeout,
		MinRequests:  cfg.Resilience.CircuitBreaker.MinRequests,
		FailureRatio: cfg.Resilience.CircuitBreaker.FailureRatio,
	}
	return newClickHouseQueryLogRepository(client, resilience.NewBreaker(breakerCfg, logger))
}

func newClickHouseQueryLogRepository(db execer, breaker *resilience.Breaker) *ClickHouseQueryLogRepository {
	return &ClickHouseQueryLogRepository{db: db, breaker: breaker, redact: redact.Default()}
}

// Record 写入一条记录，消息中的个人信息先脱敏
func (r *ClickHouseQueryLogRepository) Record(ctx context.Context, entry *domain.QueryLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	err := r.breaker.Do(func() error {
		return r.db.Exec(ctx, insertQueryLogSQL,
			entry.ID,
			entry.TenantID,
			redact.Text(entry.Message, r.redact),
			string(entry.Source),
			entry.MetricKey,
			entry.Cached,
			entry.Latency.Milliseconds(),
			entry.ErrReason,
			entry.CreatedAt.UTC(),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to record chat query: %w", err)
	}
	return nil
}

// NoopQueryLogRepository 丢弃审计记录
type NoopQueryLogRepository struct{}

// Record 不做任何事
func (NoopQueryLogRepository) Record(context.Context, *domain.QueryLog) error { return nil }
