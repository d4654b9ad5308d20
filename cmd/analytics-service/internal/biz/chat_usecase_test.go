package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

// MockCustomerRepository 模拟客户仓储
type MockCustomerRepository struct {
	ListCustomersFunc func(ctx context.Context, tenantID string, filter domain.DatasetFilter) ([]*domain.Customer, error)
	Calls             int
	LastTenant        string
	LastFilter        domain.DatasetFilter
}

func (m *MockCustomerRepository) ListCustomers(ctx context.Context, tenantID string, filter domain.DatasetFilter) ([]*domain.Customer, error) {
	m.Calls++
	m.LastTenant = tenantID
	m.LastFilter = filter
	if m.ListCustomersFunc != nil {
		return m.ListCustomersFunc(ctx, tenantID, filter)
	}
	return nil, nil
}

func newTestChatUsecase(repo domain.CustomerRepository) *ChatUsecase {
	catalog := DefaultCatalog()
	return NewChatUsecase(
		NewTrivialClassifier(DefaultTrivialRules()),
		NewIntentMatcher(DefaultFuzzyCutoff, catalog.Computations, catalog.Help),
		catalog,
		NewMetricExecutor(catalog.Computations, NewMockResultCache(), DefaultMetricTTL, zap.NewNop()),
		repo,
		DefaultClarificationExamples,
		zap.NewNop(),
	)
}

func tenantRows() []*domain.Customer {
	return []*domain.Customer{
		customer("Ana", "activo", money(10), date("2024-01-01"), nil),
		customer("Beto", "activo", money(30), date("2024-02-01"), nil),
		customer("Caro", "cancelado", nil, date("2024-01-01"), date("2025-03-01")),
	}
}

func TestChatUsecase_LocalRepliesSkipDataset(t *testing.T) {
	repo := &MockCustomerRepository{}
	uc := newTestChatUsecase(repo)

	for _, msg := range []string{"Hola buenas", "gracias!", "¿qué puedes hacer?", ""} {
		reply, err := uc.Handle(context.Background(), &domain.ChatQuery{TenantID: "tenant-1", Message: msg})
		require.NoError(t, err, msg)
		assert.Equal(t, domain.SourceLocal, reply.Source, msg)
		assert.NotEmpty(t, reply.Assistant, msg)
	}
	assert.Equal(t, 0, repo.Calls)
}

func TestChatUsecase_Clarification(t *testing.T) {
	repo := &MockCustomerRepository{}
	uc := newTestChatUsecase(repo)

	reply, err := uc.Handle(context.Background(), &domain.ChatQuery{TenantID: "tenant-1", Message: "xyzzy plugh"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceClarification, reply.Source)
	assert.Len(t, reply.Examples, DefaultClarificationExamples)
	assert.Contains(t, reply.Assistant, "No entendí")
	for _, ex := range reply.Examples {
		assert.Contains(t, reply.Assistant, ex)
	}
	assert.Equal(t, 0, repo.Calls)
}

func TestChatUsecase_ClarificationPrefersRelatedPhrases(t *testing.T) {
	uc := newTestChatUsecase(&MockCustomerRepository{})

	examples := uc.suggest("registros")
	require.NotEmpty(t, examples)

	owners := map[string]string{}
	for _, c := range uc.catalog.Computations.candidates {
		owners[c.display] = c.descriptor.Key
	}
	assert.Equal(t, "total_registros", owners[examples[0]])

	seen := map[string]bool{}
	for _, ex := range examples {
		key := owners[ex]
		assert.False(t, seen[key], "descriptor %s suggested twice", key)
		seen[key] = true
	}
}

func TestChatUsecase_HelpTopic(t *testing.T) {
	repo := &MockCustomerRepository{}
	uc := newTestChatUsecase(repo)

	reply, err := uc.Handle(context.Background(), &domain.ChatQuery{TenantID: "tenant-1", Message: "¿Qué es el churn?"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceHelp, reply.Source)
	assert.Equal(t, "definicion_churn", reply.MetricKey)
	assert.Contains(t, reply.Assistant, "porcentaje de clientes")
	assert.Equal(t, 0, repo.Calls)
}

func TestChatUsecase_ShortMetricRequests(t *testing.T) {
	repo := &MockCustomerRepository{
		ListCustomersFunc: func(context.Context, string, domain.DatasetFilter) ([]*domain.Customer, error) {
			return tenantRows(), nil
		},
	}
	uc := newTestChatUsecase(repo)

	testCases := []struct {
		name    string
		message string
		wantKey string
	}{
		{name: "arpu", message: "dame el arpu", wantKey: "arpu_promedio"},
		{name: "churn", message: "el churn", wantKey: "hallar_churn"},
		{name: "registros", message: "número de registros", wantKey: "total_registros"},
		{name: "带问号的别名", message: "¿Cantidad de registros?", wantKey: "total_registros"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := uc.Handle(context.Background(), &domain.ChatQuery{TenantID: "tenant-1", Message: tc.message})
			require.NoError(t, err)
			assert.Equal(t, domain.SourceMetric, reply.Source)
			assert.Equal(t, tc.wantKey, reply.MetricKey)
			require.NotNil(t, reply.Value)
		})
	}
}

func TestChatUsecase_MetricReplyIsCached(t *testing.T) {
	repo := &MockCustomerRepository{
		ListCustomersFunc: func(context.Context, string, domain.DatasetFilter) ([]*domain.Customer, error) {
			return tenantRows(), nil
		},
	}
	uc := newTestChatUsecase(repo)
	query := &domain.ChatQuery{TenantID: "tenant-1", Message: "¿Cuántos clientes activos?"}

	first, err := uc.Handle(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceMetric, first.Source)
	assert.Equal(t, "clientes_activos", first.MetricKey)
	assert.Equal(t, domain.IntValue(2), *first.Value)
	assert.Equal(t, "Clientes activos: 2", first.Assistant)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, repo.Calls)
	assert.Equal(t, "tenant-1", repo.LastTenant)

	second, err := uc.Handle(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Assistant, second.Assistant)
	// 命中缓存时不加载数据
	assert.Equal(t, 1, repo.Calls)

	// 其他租户不共享缓存
	_, err = uc.Handle(context.Background(), &domain.ChatQuery{TenantID: "tenant-2", Message: query.Message})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Calls)
	assert.Equal(t, "tenant-2", repo.LastTenant)
}

func TestChatUsecase_ChurnWithDates(t *testing.T) {
	repo := &MockCustomerRepository{
		ListCustomersFunc: func(context.Context, string, domain.DatasetFilter) ([]*domain.Customer, error) {
			return tenantRows(), nil
		},
	}
	uc := newTestChatUsecase(repo)
	filter := domain.DatasetFilter{Tipo: "pyme"}

	reply, err := uc.Handle(context.Background(), &domain.ChatQuery{
		TenantID: "tenant-1",
		Message:  "tasa de churn del 2025-01-01 al 2025-06-30",
		Filter:   filter,
	})
	require.NoError(t, err)
	assert.Equal(t, "hallar_churn", reply.MetricKey)
	assert.Equal(t, domain.Parameters{ParamStartDate: "2025-01-01", ParamEndDate: "2025-06-30"}, reply.Params)
	assert.InDelta(t, 100.0/3.0, reply.Value.Float(), 1e-9)
	assert.Equal(t, "Tasa de churn (%): 33.333", reply.Assistant)
	assert.Equal(t, filter, repo.LastFilter)
}

func TestChatUsecase_Errors(t *testing.T) {
	repoErr := errors.New("connection refused")
	repo := &MockCustomerRepository{
		ListCustomersFunc: func(context.Context, string, domain.DatasetFilter) ([]*domain.Customer, error) {
			return nil, repoErr
		},
	}
	uc := newTestChatUsecase(repo)
	ctx := context.Background()

	_, err := uc.Handle(ctx, &domain.ChatQuery{Message: "churn"})
	assert.True(t, errors.Is(err, domain.ErrUnauthenticatedTenant))

	_, err = uc.Handle(ctx, nil)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticatedTenant))

	_, err = uc.Handle(ctx, &domain.ChatQuery{TenantID: "tenant-1", Message: "churn"})
	assert.True(t, errors.Is(err, domain.ErrComputation))
	assert.ErrorIs(t, err, repoErr)

	_, err = uc.Execute(ctx, "tenant-1", "no_existe", nil, domain.DatasetFilter{})
	assert.True(t, errors.Is(err, domain.ErrUnknownMetric))

	_, err = uc.Execute(ctx, "", "clientes_activos", nil, domain.DatasetFilter{})
	assert.True(t, errors.Is(err, domain.ErrUnauthenticatedTenant))

	_, err = uc.Execute(ctx, "tenant-1", "clientes_activos", domain.Parameters{"fecha_fin": "2025-01-01"}, domain.DatasetFilter{})
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
}
