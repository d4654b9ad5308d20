package resilience

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen 熔断器打开或半开状态下请求过多
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	Name         string        // 熔断器名称
	MaxRequests  uint32        // 半开状态允许的最大请求数
	Interval     time.Duration // 统计窗口
	Timeout      time.Duration // 熔断后恢复时间
	MinRequests  uint32        // 最小请求数（达到后才计算失败率）
	FailureRatio float64       // 失败率阈值（0.0-1.0）
	// IsSuccessful 判断错误是否计为成功，例如缓存未命中
	IsSuccessful func(err error) bool
}

// DefaultBreakerConfig 默认配置：请求数 >= 5 且失败率 >= 60% 时熔断
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  3,
		Interval:     10 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Breaker 基于 gobreaker 的熔断器
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker 创建熔断器
func NewBreaker(cfg BreakerConfig, logger *zap.Logger) *Breaker {
	def := DefaultBreakerConfig(cfg.Name)
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = def.FailureRatio
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: cfg.IsSuccessful,
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do 在熔断保护下执行 fn
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrCircuitOpen, err)
	}
	return err
}

// State 当前状态
func (b *Breaker) State() string {
	return b.cb.State().String()
}
