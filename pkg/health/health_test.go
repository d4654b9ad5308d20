package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestHealthChecker_Readiness(t *testing.T) {
	testCases := []struct {
		name       string
		checkers   []Checker
		wantStatus Status
		wantReady  bool
	}{
		{
			name:       "无依赖",
			wantStatus: StatusHealthy,
			wantReady:  true,
		},
		{
			name: "全部健康",
			checkers: []Checker{
				NewPingChecker("postgres", true, ok),
				NewPingChecker("redis", false, ok),
			},
			wantStatus: StatusHealthy,
			wantReady:  true,
		},
		{
			name: "非关键依赖失败",
			checkers: []Checker{
				NewPingChecker("postgres", true, ok),
				NewPingChecker("clickhouse", false, down),
			},
			wantStatus: StatusDegraded,
			wantReady:  true,
		},
		{
			name: "关键依赖失败",
			checkers: []Checker{
				NewPingChecker("postgres", true, down),
				NewPingChecker("clickhouse", false, down),
			},
			wantStatus: StatusUnhealthy,
			wantReady:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthChecker(time.Second)
			for _, c := range tc.checkers {
				h.Register(c)
			}
			report := h.Readiness(context.Background(), "analytics-service", time.Now())
			assert.Equal(t, tc.wantStatus, report.Status)
			assert.Equal(t, tc.wantReady, report.Ready)
			assert.Len(t, report.Checks, len(tc.checkers))
		})
	}
}

func TestHealthChecker_Timeout(t *testing.T) {
	h := NewHealthChecker(10 * time.Millisecond)
	h.Register(NewPingChecker("slow", true, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := h.Check(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, StatusUnhealthy, results[0].Status)
	assert.Contains(t, results[0].Error, "deadline")
}
