package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded 非关键依赖不可用
	StatusDegraded Status = "degraded"
)

// CheckResult 单个依赖的检查结果
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Critical bool          `json:"critical"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Checker 健康检查器接口
type Checker interface {
	Name() string
	// Critical 关键依赖失败时服务未就绪
	Critical() bool
	Check(ctx context.Context) error
}

// PingChecker 基于 ping 函数的检查器
type PingChecker struct {
	name     string
	critical bool
	ping     func(context.Context) error
}

// NewPingChecker 创建检查器
func NewPingChecker(name string, critical bool, ping func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, critical: critical, ping: ping}
}

func (p *PingChecker) Name() string   { return p.name }
func (p *PingChecker) Critical() bool { return p.critical }

func (p *PingChecker) Check(ctx context.Context) error {
	return p.ping(ctx)
}

// HealthChecker 健康检查管理器
type HealthChecker struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewHealthChecker 创建健康检查管理器，timeout 为单个检查的超时
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthChecker{timeout: timeout}
}

// Register 注册检查器
func (h *HealthChecker) Register(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checker)
}

// Check 并发执行所有检查，结果按名称排序
func (h *HealthChecker) Check(ctx context.Context) []CheckResult {
	h.mu.RLock()
	checkers := append([]Checker(nil), h.checkers...)
	h.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			start := time.Now()
			err := c.Check(cctx)
			r := CheckResult{Name: c.Name(), Status: StatusHealthy, Critical: c.Critical(), Duration: time.Since(start)}
			if err != nil {
				r.Status = StatusUnhealthy
				r.Error = err.Error()
			}
			results[i] = r
		}(i, checker)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Report 就绪报告
type Report struct {
	Service string        `json:"service"`
	Status  Status        `json:"status"`
	Ready   bool          `json:"ready"`
	Uptime  string        `json:"uptime"`
	Checks  []CheckResult `json:"checks"`
}

// Readiness 汇总检查结果：任一关键依赖失败则未就绪，非关键依赖失败为降级
func (h *HealthChecker) Readiness(ctx context.Context, service string, startTime time.Time) Report {
	checks := h.Check(ctx)
	report := Report{
		Service: service,
		Status:  StatusHealthy,
		Ready:   true,
		Uptime:  time.Since(startTime).Truncate(time.Second).String(),
		Checks:  checks,
	}
	for _, c := range checks {
		if c.Status == StatusHealthy {
			continue
		}
		if c.Critical {
			report.Status = StatusUnhealthy
			report.Ready = false
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}
