package data

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/events"
)

// MockPublisher 记录发布的事件
type MockPublisher struct {
	Events []*events.Event
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, event *events.Event) error {
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockPublisher) Close() error { return nil }

func TestEventQueryLogRepository_Record(t *testing.T) {
	publisher := &MockPublisher{}
	repo := NewEventQueryLogRepository(publisher)

	created := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(context.Background(), &domain.QueryLog{
		ID:        "q-1",
		TenantID:  "tenant-1",
		Message:   "llámame al +34 600 123 456",
		Source:    domain.SourceClarification,
		Latency:   15 * time.Millisecond,
		CreatedAt: created,
	}))

	require.Len(t, publisher.Events, 1)
	event := publisher.Events[0]
	assert.Equal(t, EventChatQueryCompleted, event.Type)
	assert.Equal(t, "tenant-1", event.TenantID)
	assert.Equal(t, "q-1", event.AggregateID)
	assert.Equal(t, created, event.Timestamp)

	var payload chatQueryPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.NotContains(t, payload.Message, "600 123 456")
	assert.Equal(t, "clarification", payload.Source)
	assert.Equal(t, int64(15), payload.LatencyMs)
}

func TestMultiQueryLog_RecordsAllSinks(t *testing.T) {
	failErr := errors.New("broker down")
	first := &MockPublisher{Err: failErr}
	second := &MockPublisher{}
	sinks := multiQueryLog{NewEventQueryLogRepository(first), NewEventQueryLogRepository(second)}

	err := sinks.Record(context.Background(), &domain.QueryLog{ID: "q-1", TenantID: "tenant-1"})
	assert.ErrorIs(t, err, failErr)
	assert.Len(t, first.Events, 1)
	assert.Len(t, second.Events, 1)
}

func TestNewQueryLogRepository_EventsOnly(t *testing.T) {
	repo := NewQueryLogRepository(&conf.Config{}, nil, &MockPublisher{}, zap.NewNop())

	_, ok := repo.(*EventQueryLogRepository)
	assert.True(t, ok)
}

func TestNewEventPublisher_Disabled(t *testing.T) {
	publisher, cleanup, err := NewEventPublisher(&conf.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, publisher)
}
