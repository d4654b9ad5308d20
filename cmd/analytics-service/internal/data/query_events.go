package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/events"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/redact"
)

// EventChatQueryCompleted 聊天查询完成事件
const EventChatQueryCompleted = "chat.query.completed"

// chatQueryPayload 事件负载
type chatQueryPayload struct {
	QueryID   string `json:"query_id"`
	Message   string `json:"message"`
	Source    string `json:"source,omitempty"`
	MetricKey string `json:"metric_key,omitempty"`
	Cached    bool   `json:"cached"`
	LatencyMs int64  `json:"latency_ms"`
	ErrReason string `json:"error_reason,omitempty"`
}

// NewEventPublisher 创建 Kafka 事件发布器，未启用时返回 nil
func NewEventPublisher(cfg *conf.Config, logger *zap.Logger) (events.Publisher, func(), error) {
	if !cfg.Events.Enabled {
		return nil, func() {}, nil
	}
	publisherCfg := events.DefaultPublisherConfig()
	publisherCfg.Brokers = cfg.Events.Brokers
	publisherCfg.Topic = cfg.Events.Topic
	publisherCfg.RetryMax = cfg.Events.RetryMax
	publisherCfg.RequiredAcks = sarama.WaitForLocal

	publisher, err := events.NewKafkaPublisher(publisherCfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("publishing chat query events", zap.Strings("brokers", cfg.Events.Brokers), zap.String("topic", cfg.Events.Topic))
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka publisher", zap.Error(err))
		}
	}
	return publisher, cleanup, nil
}

// EventQueryLogRepository 将查询记录作为事件发布
type EventQueryLogRepository struct {
	publisher events.Publisher
	redact    redact.Config
}

// NewEventQueryLogRepository 创建事件审计仓储
func NewEventQueryLogRepository(publisher events.Publisher) *EventQueryLogRepository {
	return &EventQueryLogRepository{publisher: publisher, redact: redact.Default()}
}

// Record 发布一条查询事件
func (r *EventQueryLogRepository) Record(ctx context.Context, entry *domain.QueryLog) error {
	event, err := events.NewEvent(EventChatQueryCompleted, entry.TenantID, entry.ID, chatQueryPayload{
		QueryID:   entry.ID,
		Message:   redact.Text(entry.Message, r.redact),
		Source:    string(entry.Source),
		MetricKey: entry.MetricKey,
		Cached:    entry.Cached,
		LatencyMs: entry.Latency.Milliseconds(),
		ErrReason: entry.ErrReason,
	})
	if err != nil {
		return err
	}
	if !entry.CreatedAt.IsZero() {
		event.Timestamp = entry.CreatedAt.UTC()
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish chat query: %w", err)
	}
	return nil
}

// multiQueryLog 依次写入多个审计目标
type multiQueryLog []domain.QueryLogRepository

// Record 写入全部目标，返回合并后的错误
func (m multiQueryLog) Record(ctx context.Context, entry *domain.QueryLog) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
