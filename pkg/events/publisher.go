package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// EventVersion 当前事件结构版本
const EventVersion = "v1"

// Event 事件信封，payload 为 JSON
type Event struct {
	ID            string            `json:"event_id"`
	Type          string            `json:"event_type"`
	Version       string            `json:"event_version"`
	AggregateID   string            `json:"aggregate_id"`
	TenantID      string            `json:"tenant_id"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent 构造事件，payload 序列化为 JSON
func NewEvent(eventType, tenantID, aggregateID string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Version:     EventVersion,
		AggregateID: aggregateID,
		TenantID:    tenantID,
		Timestamp:   time.Now().UTC(),
		Payload:     data,
	}, nil
}

// Publisher 事件发布器接口
type Publisher interface {
	// Publish 发布事件
	Publish(ctx context.Context, event *Event) error

	// Close 关闭发布器
	Close() error
}

// PublisherConfig 发布器配置
type PublisherConfig struct {
	Brokers      []string
	Topic        string
	RetryMax     int
	RequiredAcks sarama.RequiredAcks
	Compression  sarama.CompressionCodec
}

// DefaultPublisherConfig 默认配置
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "events",
		RetryMax:     3,
		RequiredAcks: sarama.WaitForLocal,
		Compression:  sarama.CompressionSnappy,
	}
}

// KafkaPublisher Kafka 事件发布器
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher 创建 Kafka 发布器
func NewKafkaPublisher(config *PublisherConfig) (*KafkaPublisher, error) {
	if config == nil {
		config = DefaultPublisherConfig()
	}
	if len(config.Brokers) == 0 {
		return nil, errors.New("kafka publisher needs at least one broker")
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, SaramaConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, config.Topic), nil
}

// SaramaConfig 同步生产者配置
func SaramaConfig(config *PublisherConfig) *sarama.Config {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.RequiredAcks = config.RequiredAcks
	kafkaConfig.Producer.Compression = config.Compression
	kafkaConfig.Producer.Retry.Max = config.RetryMax
	kafkaConfig.Version = sarama.V3_6_0_0
	return kafkaConfig
}

// NewKafkaPublisherWithProducer 使用已有生产者创建发布器
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = "events"
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish 发布事件，按租户分区以保持租户内顺序
func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Version == "" {
		event.Version = EventVersion
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.TenantID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("tenant_id"), Value: []byte(event.TenantID)},
			{Key: []byte("correlation_id"), Value: []byte(event.CorrelationID)},
		},
		Timestamp: event.Timestamp,
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close 关闭发布器
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
