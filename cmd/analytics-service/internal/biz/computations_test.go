package biz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

func date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func money(v float64) *float64 { return &v }

func customer(name, status string, arpu *float64, start, cancelled *time.Time) *domain.Customer {
	return &domain.Customer{
		ID:               name,
		TenantID:         "tenant-1",
		Name:             name,
		Status:           status,
		ARPU:             arpu,
		ContractStart:    start,
		CancellationDate: cancelled,
	}
}

func TestCountByStatus(t *testing.T) {
	ds := domain.StaticDataset("tenant-1", []*domain.Customer{
		customer("Ana", "activo", nil, nil, nil),
		customer("Beto", " Activo ", nil, nil, nil),
		customer("Caro", "inactivo", nil, nil, nil),
		customer("Dani", "cancelado", nil, nil, nil),
	})

	active, err := countByStatus(domain.StatusActive)(context.Background(), ds, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.IntValue(2), *active.Value)

	inactive, err := countByStatus(domain.StatusInactive)(context.Background(), ds, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.IntValue(1), *inactive.Value)

	total, err := computeTotalRecords(context.Background(), ds, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.IntValue(4), *total.Value)
}

func TestComputeAverageARPU(t *testing.T) {
	testCases := []struct {
		name     string
		rows     []*domain.Customer
		expected domain.Value
	}{
		{
			name:     "空数据集",
			rows:     nil,
			expected: domain.NullValue(),
		},
		{
			name: "全部为空",
			rows: []*domain.Customer{
				customer("Ana", "activo", nil, nil, nil),
			},
			expected: domain.NullValue(),
		},
		{
			name: "忽略空值",
			rows: []*domain.Customer{
				customer("Ana", "activo", money(10), nil, nil),
				customer("Beto", "activo", money(25), nil, nil),
				customer("Caro", "activo", nil, nil, nil),
			},
			expected: domain.FloatValue(17.5),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := computeAverageARPU(context.Background(), domain.StaticDataset("tenant-1", tc.rows), nil)
			require.NoError(t, err)
			require.NotNil(t, result.Value)
			assert.Equal(t, tc.expected, *result.Value)
		})
	}
}

func TestComputeChurnRate_ExplicitDates(t *testing.T) {
	rows := make([]*domain.Customer, 0, 12)
	for i := 0; i < 7; i++ {
		rows = append(rows, customer(fmt.Sprintf("activo-%d", i), "activo", nil, date("2024-03-01"), nil))
	}
	rows = append(rows,
		customer("c1", "cancelado", nil, date("2024-01-15"), date("2025-01-01")),
		customer("c2", "cancelado", nil, date("2024-05-10"), date("2025-03-15")),
		customer("c3", "cancelado", nil, date("2025-02-01"), date("2025-06-30")),
		// 合同在期末之后开始，不计入分母
		customer("late", "activo", nil, date("2025-07-01"), nil),
	)

	result, err := computeChurnRate(context.Background(), domain.StaticDataset("tenant-1", rows), domain.Parameters{
		ParamStartDate: "2025-01-01",
		ParamEndDate:   "2025-06-30",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Value)
	assert.Equal(t, domain.KindFloat, result.Value.Kind())
	assert.Equal(t, 30.0, result.Value.Float())
	assert.Equal(t, domain.IntValue(3), result.Meta["numerador"])
	assert.Equal(t, domain.IntValue(10), result.Meta["denominador"])
	assert.Equal(t, domain.StringValue("2025-01-01"), result.Meta[ParamStartDate])
}

func TestComputeChurnRate_Rules(t *testing.T) {
	rows := []*domain.Customer{
		customer("a", "activo", nil, date("2024-01-01"), nil),
		// 有取消日期但状态为 activo，不计入分子
		customer("b", "activo", nil, date("2024-01-01"), date("2025-02-01")),
		customer("c", "inactivo", nil, date("2024-01-01"), date("2025-02-01")),
		customer("d", "cancelado", nil, date("2024-01-01"), date("2025-08-01")),
		// 无合同开始日期：有期末时不计入分母
		customer("e", "cancelado", nil, nil, date("2025-03-01")),
	}
	ds := domain.StaticDataset("tenant-1", rows)

	t.Run("无日期", func(t *testing.T) {
		result, err := computeChurnRate(context.Background(), ds, domain.Parameters{})
		require.NoError(t, err)
		// 分子 c d e，分母全部 5
		assert.Equal(t, 60.0, result.Value.Float())
		assert.Equal(t, domain.NullValue(), result.Meta[ParamStartDate])
	})

	t.Run("仅期末", func(t *testing.T) {
		result, err := computeChurnRate(context.Background(), ds, domain.Parameters{ParamEndDate: "2025-06-30"})
		require.NoError(t, err)
		// 分子 c e，分母 a b c d
		assert.Equal(t, 50.0, result.Value.Float())
	})

	t.Run("仅期初", func(t *testing.T) {
		result, err := computeChurnRate(context.Background(), ds, domain.Parameters{ParamStartDate: "2025-03-01"})
		require.NoError(t, err)
		// 分子 d e，分母全部 5
		assert.Equal(t, 40.0, result.Value.Float())
	})
}

func TestComputeChurnRate_EmptyDatasetIsNull(t *testing.T) {
	result, err := computeChurnRate(context.Background(), domain.StaticDataset("tenant-1", nil), domain.Parameters{})
	require.NoError(t, err)
	require.NotNil(t, result.Value)
	assert.True(t, result.Value.IsNull())
	assert.Equal(t, domain.IntValue(0), result.Meta["denominador"])
}

func TestComputeChurnRate_InvalidDate(t *testing.T) {
	_, err := computeChurnRate(context.Background(), domain.StaticDataset("tenant-1", nil), domain.Parameters{
		ParamStartDate: "01-2025",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
	assert.Contains(t, err.Error(), ParamStartDate)

	_, err = computeChurnRate(context.Background(), domain.StaticDataset("tenant-1", nil), domain.Parameters{
		ParamEndDate: 20250101,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
}

func TestListByStatus(t *testing.T) {
	list := listByStatus(domain.StatusActive, "activos")

	t.Run("空列表", func(t *testing.T) {
		ds := domain.StaticDataset("tenant-1", []*domain.Customer{
			customer("Caro", "inactivo", nil, nil, nil),
		})
		result, err := list(context.Background(), ds, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.StringValue("No hay clientes activos."), *result.Value)
		assert.Equal(t, domain.IntValue(0), result.Meta["total"])
	})

	t.Run("列表", func(t *testing.T) {
		ds := domain.StaticDataset("tenant-1", []*domain.Customer{
			customer("Ana", "activo", nil, nil, nil),
			customer("Caro", "inactivo", nil, nil, nil),
			customer("Beto", "activo", nil, nil, nil),
		})
		result, err := list(context.Background(), ds, nil)
		require.NoError(t, err)
		assert.Equal(t, "Clientes activos (2):\n- Ana\n- Beto", result.Value.Str())
		assert.Equal(t, domain.IntValue(2), result.Meta["total"])
	})
}

func TestComputations_PropagateLoadErrors(t *testing.T) {
	loadErr := errors.New("connection refused")
	for key, fn := range BuiltinComputations() {
		ds := domain.NewScopedDataset("tenant-1", domain.DatasetFilter{}, func(context.Context) ([]*domain.Customer, error) {
			return nil, loadErr
		})
		_, err := fn(context.Background(), ds, domain.Parameters{})
		assert.ErrorIs(t, err, loadErr, key)
	}
}
