package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/biz"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

// MockCustomerRepository 固定数据
type MockCustomerRepository struct {
	Rows       []*domain.Customer
	Err        error
	LastFilter domain.DatasetFilter
}

func (m *MockCustomerRepository) ListCustomers(_ context.Context, _ string, filter domain.DatasetFilter) ([]*domain.Customer, error) {
	m.LastFilter = filter
	return m.Rows, m.Err
}

// MockQueryLogRepository 记录审计条目
type MockQueryLogRepository struct {
	mu      sync.Mutex
	Entries []*domain.QueryLog
	Err     error
}

func (m *MockQueryLogRepository) Record(_ context.Context, entry *domain.QueryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return m.Err
}

func newTestService(repo domain.CustomerRepository, queryLog domain.QueryLogRepository) *ChatService {
	catalog := biz.DefaultCatalog()
	matcher := biz.NewIntentMatcher(biz.DefaultFuzzyCutoff, catalog.Computations, catalog.Help)
	executor := biz.NewMetricExecutor(catalog.Computations, biz.NoopCache{}, biz.DefaultMetricTTL, zap.NewNop())
	uc := biz.NewChatUsecase(biz.NewTrivialClassifier(biz.DefaultTrivialRules()), matcher, catalog, executor, repo, 0, zap.NewNop())
	return NewChatService(uc, queryLog, zap.NewNop())
}

func activeRows() []*domain.Customer {
	return []*domain.Customer{
		{ID: "1", TenantID: "tenant-1", Name: "Ana", Status: "activo"},
		{ID: "2", TenantID: "tenant-1", Name: "Beto", Status: "inactivo"},
	}
}

func TestChatService_Chat(t *testing.T) {
	repo := &MockCustomerRepository{Rows: activeRows()}
	queryLog := &MockQueryLogRepository{}
	svc := newTestService(repo, queryLog)

	reply, err := svc.Chat(context.Background(), "tenant-1", &ChatRequest{
		Message:       "¿Cuántos clientes activos?",
		FilterRequest: FilterRequest{Start: "2025-01-01", End: "2025-06-30", Estado: " activo ", Tipo: "pyme"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceMetric, reply.Source)
	assert.Equal(t, "Clientes activos: 1", reply.Assistant)

	require.NotNil(t, repo.LastFilter.Start)
	assert.Equal(t, "2025-01-01", repo.LastFilter.Start.Format(time.DateOnly))
	assert.Equal(t, "2025-06-30", repo.LastFilter.End.Format(time.DateOnly))
	assert.Equal(t, "activo", repo.LastFilter.Estado)
	assert.Equal(t, "pyme", repo.LastFilter.Tipo)

	require.Len(t, queryLog.Entries, 1)
	entry := queryLog.Entries[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "tenant-1", entry.TenantID)
	assert.Equal(t, domain.SourceMetric, entry.Source)
	assert.Equal(t, "clientes_activos", entry.MetricKey)
	assert.Empty(t, entry.ErrReason)
}

func TestChatService_AuditFailureDoesNotFailRequest(t *testing.T) {
	svc := newTestService(&MockCustomerRepository{}, &MockQueryLogRepository{Err: errors.New("clickhouse down")})

	reply, err := svc.Chat(context.Background(), "tenant-1", &ChatRequest{Message: "hola"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLocal, reply.Source)
}

func TestChatService_AuditRecordsErrorReason(t *testing.T) {
	queryLog := &MockQueryLogRepository{}
	svc := newTestService(&MockCustomerRepository{Err: errors.New("connection refused")}, queryLog)

	_, err := svc.Chat(context.Background(), "tenant-1", &ChatRequest{Message: "total registros"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrComputation))

	require.Len(t, queryLog.Entries, 1)
	assert.Equal(t, domain.ReasonComputationError, queryLog.Entries[0].ErrReason)
}

func TestChatService_NoAuditWithoutTenant(t *testing.T) {
	queryLog := &MockQueryLogRepository{}
	svc := newTestService(&MockCustomerRepository{}, queryLog)

	_, err := svc.Chat(context.Background(), "", &ChatRequest{Message: "hola"})
	assert.True(t, errors.Is(err, domain.ErrUnauthenticatedTenant))
	assert.Empty(t, queryLog.Entries)
}

func TestChatService_InvalidFilter(t *testing.T) {
	svc := newTestService(&MockCustomerRepository{}, &MockQueryLogRepository{})

	testCases := []struct {
		name   string
		filter FilterRequest
		field  string
	}{
		{name: "开始日期格式", filter: FilterRequest{Start: "01/01/2025"}, field: "start"},
		{name: "结束日期格式", filter: FilterRequest{End: "2025-13-01"}, field: "end"},
		{name: "结束早于开始", filter: FilterRequest{Start: "2025-06-30", End: "2025-01-01"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Chat(context.Background(), "tenant-1", &ChatRequest{Message: "churn", FilterRequest: tc.filter})
			require.Error(t, err)
			se := kerrors.FromError(err)
			assert.Equal(t, int32(400), se.Code)
			if tc.field != "" {
				assert.Equal(t, tc.field, se.Metadata["field"])
			}
		})
	}
}

func TestChatService_ExecuteMetric(t *testing.T) {
	svc := newTestService(&MockCustomerRepository{Rows: activeRows()}, &MockQueryLogRepository{})

	reply, err := svc.ExecuteMetric(context.Background(), "tenant-1", "listar_clientes_inactivos", &ExecuteRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Clientes inactivos (1):\n- Beto", reply.Assistant)

	_, err = svc.ExecuteMetric(context.Background(), "tenant-1", "no_existe", &ExecuteRequest{})
	assert.True(t, errors.Is(err, domain.ErrUnknownMetric))

	_, err = svc.ExecuteMetric(context.Background(), "tenant-1", "hallar_churn", &ExecuteRequest{
		Params: map[string]any{"fecha_fin": "30/06/2025"},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
}

func TestChatService_Catalog(t *testing.T) {
	svc := newTestService(&MockCustomerRepository{}, &MockQueryLogRepository{})

	catalog := svc.Catalog()
	assert.Len(t, catalog.Computations, 7)
	assert.NotEmpty(t, catalog.Help)

	var churn *CatalogEntry
	for i := range catalog.Computations {
		if catalog.Computations[i].Key == "hallar_churn" {
			churn = &catalog.Computations[i]
		}
	}
	require.NotNil(t, churn)
	assert.Len(t, churn.Parameters, 2)
}
