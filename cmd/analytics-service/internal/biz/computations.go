package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/domain"
)

// 参数名
const (
	ParamStartDate = "fecha_inicio"
	ParamEndDate   = "fecha_fin"
)

func statusIs(c *domain.Customer, statuses ...string) bool {
	s := strings.ToLower(strings.TrimSpace(c.Status))
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

func countByStatus(status string) domain.ComputeFunc {
	return func(ctx context.Context, ds *domain.ScopedDataset, _ domain.Parameters) (*domain.MetricResult, error) {
		rows, err := ds.Rows(ctx)
		if err != nil {
			return nil, err
		}
		var n int64
		for _, c := range rows {
			if statusIs(c, status) {
				n++
			}
		}
		return domain.NewMetricResult(domain.IntValue(n), map[string]domain.Value{
			"estado": domain.StringValue(status),
		}), nil
	}
}

// computeTotalRecords 数据集总行数
func computeTotalRecords(ctx context.Context, ds *domain.ScopedDataset, _ domain.Parameters) (*domain.MetricResult, error) {
	rows, err := ds.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewMetricResult(domain.IntValue(int64(len(rows))), nil), nil
}

// computeAverageARPU ARPU 算术平均，无数据时为空值
func computeAverageARPU(ctx context.Context, ds *domain.ScopedDataset, _ domain.Parameters) (*domain.MetricResult, error) {
	rows, err := ds.Rows(ctx)
	if err != nil {
		return nil, err
	}

	var (
		sum float64
		n   int64
	)
	for _, c := range rows {
		if c.ARPU == nil {
			continue
		}
		sum += *c.ARPU
		n++
	}

	meta := map[string]domain.Value{"registros": domain.IntValue(n)}
	if n == 0 {
		return domain.NewMetricResult(domain.NullValue(), meta), nil
	}
	return domain.NewMetricResult(domain.FloatValue(sum/float64(n)), meta), nil
}

// computeChurnRate 期间流失率（百分比）
// 分母：合同开始日期不晚于 fecha_fin 的客户（未提供时为全部）。
// 分子：有取消日期、状态为 inactivo/cancelado、且取消日期落在区间内的客户。
// 分母为 0 时结果为空值而不是 0。
func computeChurnRate(ctx context.Context, ds *domain.ScopedDataset, params domain.Parameters) (*domain.MetricResult, error) {
	start, err := dateParam(params, ParamStartDate)
	if err != nil {
		return nil, err
	}
	end, err := dateParam(params, ParamEndDate)
	if err != nil {
		return nil, err
	}

	rows, err := ds.Rows(ctx)
	if err != nil {
		return nil, err
	}

	var denominator, numerator int64
	for _, c := range rows {
		if end == nil {
			denominator++
		} else if c.ContractStart != nil && !dateOnly(*c.ContractStart).After(*end) {
			denominator++
		}

		if c.CancellationDate == nil || !statusIs(c, domain.StatusInactive, domain.StatusCancelled) {
			continue
		}
		cancelled := dateOnly(*c.CancellationDate)
		if start != nil && cancelled.Before(*start) {
			continue
		}
		if end != nil && cancelled.After(*end) {
			continue
		}
		numerator++
	}

	meta := map[string]domain.Value{
		"numerador":   domain.IntValue(numerator),
		"denominador": domain.IntValue(denominator),
		ParamStartDate: dateValue(start),
		ParamEndDate:   dateValue(end),
	}
	if denominator == 0 {
		return domain.NewMetricResult(domain.NullValue(), meta), nil
	}
	rate := float64(numerator) * 100 / float64(denominator)
	return domain.NewMetricResult(domain.FloatValue(rate), meta), nil
}

func listByStatus(status, label string) domain.ComputeFunc {
	return func(ctx context.Context, ds *domain.ScopedDataset, _ domain.Parameters) (*domain.MetricResult, error) {
		rows, err := ds.Rows(ctx)
		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(rows))
		for _, c := range rows {
			if statusIs(c, status) {
				names = append(names, c.Name)
			}
		}

		meta := map[string]domain.Value{"total": domain.IntValue(int64(len(names)))}
		if len(names) == 0 {
			return domain.NewMetricResult(domain.StringValue(fmt.Sprintf("No hay clientes %s.", label)), meta), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Clientes %s (%d):", label, len(names))
		for _, name := range names {
			b.WriteString("\n- ")
			b.WriteString(name)
		}
		return domain.NewMetricResult(domain.StringValue(b.String()), meta), nil
	}
}

// dateParam 读取日期参数，接受 YYYY-MM-DD 字符串或 time.Time
func dateParam(params domain.Parameters, name string) (*time.Time, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case time.Time:
		d := dateOnly(v)
		return &d, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(v))
		if err != nil {
			return nil, domain.InvalidParameter(name, "expected date YYYY-MM-DD, got %q", v)
		}
		return &t, nil
	default:
		return nil, domain.InvalidParameter(name, "expected date string, got %T", raw)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateValue(t *time.Time) domain.Value {
	if t == nil {
		return domain.NullValue()
	}
	return domain.StringValue(t.Format(time.DateOnly))
}
