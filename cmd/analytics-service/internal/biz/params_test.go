package biz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

func TestExtractDates(t *testing.T) {
	testCases := []struct {
		name    string
		message string
		want    []string
	}{
		{name: "无日期", message: "tasa de churn", want: nil},
		{name: "ISO", message: "churn del 2025-01-01 al 2025-06-30", want: []string{"2025-01-01", "2025-06-30"}},
		{name: "日/月/年", message: "churn desde 5/1/2025 hasta 30/06/2025", want: []string{"2025-01-05", "2025-06-30"}},
		{name: "混合顺序", message: "entre 01/02/2025 y 2025-03-31", want: []string{"2025-02-01", "2025-03-31"}},
		{name: "无效日期被忽略", message: "churn 2025-13-45 al 2025-06-30", want: []string{"2025-06-30"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, d := range ExtractDates(tc.message) {
				got = append(got, d.Format(time.DateOnly))
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildParameters(t *testing.T) {
	catalog := DefaultCatalog()
	churn, ok := catalog.Computations.Get("hallar_churn")
	require.True(t, ok)
	active, ok := catalog.Computations.Get("clientes_activos")
	require.True(t, ok)

	t.Run("两个日期", func(t *testing.T) {
		params := BuildParameters(churn, "churn del 2025-01-01 al 2025-06-30", nil)
		assert.Equal(t, domain.Parameters{ParamStartDate: "2025-01-01", ParamEndDate: "2025-06-30"}, params)
	})

	t.Run("单个日期只填期初", func(t *testing.T) {
		params := BuildParameters(churn, "churn desde 2025-01-01", nil)
		assert.Equal(t, domain.Parameters{ParamStartDate: "2025-01-01"}, params)
	})

	t.Run("显式参数优先", func(t *testing.T) {
		params := BuildParameters(churn, "churn del 2025-01-01 al 2025-06-30", domain.Parameters{ParamEndDate: "2025-12-31"})
		assert.Equal(t, domain.Parameters{ParamStartDate: "2025-01-01", ParamEndDate: "2025-12-31"}, params)
	})

	t.Run("未声明的参数不从消息提取", func(t *testing.T) {
		params := BuildParameters(active, "clientes activos al 2025-06-30", nil)
		assert.Empty(t, params)
	})
}
