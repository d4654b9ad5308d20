package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, SaramaConfig(DefaultPublisherConfig()))
	defer func() { _ = producer.Close() }()

	var sent *sarama.ProducerMessage
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		sent = msg
		return nil
	})

	publisher := NewKafkaPublisherWithProducer(producer, "churnbot.chat-queries")
	event, err := NewEvent("chat.query.completed", "tenant-1", "q-1", map[string]any{"metric_key": "hallar_churn"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), event))

	require.NotNil(t, sent)
	assert.Equal(t, "churnbot.chat-queries", sent.Topic)

	key, err := sent.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", string(key))

	value, err := sent.Value.Encode()
	require.NoError(t, err)
	var decoded Event
	require.NoError(t, json.Unmarshal(value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, EventVersion, decoded.Version)
	assert.JSONEq(t, `{"metric_key":"hallar_churn"}`, string(decoded.Payload))
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, SaramaConfig(DefaultPublisherConfig()))
	defer func() { _ = producer.Close() }()

	sendErr := errors.New("leader not available")
	producer.ExpectSendMessageAndFail(sendErr)

	publisher := NewKafkaPublisherWithProducer(producer, "")
	err := publisher.Publish(context.Background(), &Event{Type: "chat.query.completed", TenantID: "tenant-1"})
	assert.ErrorIs(t, err, sendErr)
}

func TestKafkaPublisher_CanceledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, SaramaConfig(DefaultPublisherConfig()))
	defer func() { _ = producer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewKafkaPublisherWithProducer(producer, "").Publish(ctx, &Event{TenantID: "tenant-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(&PublisherConfig{})
	assert.Error(t, err)
}
