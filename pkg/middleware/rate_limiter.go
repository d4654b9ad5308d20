package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	pkgerrors "github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/errors"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	RedisClient redis.UniversalClient
	MaxRequests int           // 窗口内最大请求数
	Window      time.Duration // 时间窗口
	KeyPrefix   string        // Redis key前缀
	Logger      *zap.Logger
}

// RateLimiter 按租户的固定窗口限流
// Redis 不可用时放行请求。
func RateLimiter(config RateLimiterConfig) gin.HandlerFunc {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit"
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 60
	}
	if config.Window < time.Second {
		config.Window = time.Minute
	}
	windowSeconds := int64(config.Window / time.Second)
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		tenantID := c.GetString(GinTenantIDKey)
		if tenantID == "" {
			c.Next()
			return
		}

		window := time.Now().Unix() / windowSeconds
		key := fmt.Sprintf("%s:%s:%d", config.KeyPrefix, tenantID, window)
		ctx := c.Request.Context()

		pipe := config.RedisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, config.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			config.Logger.Warn("rate limiter unavailable, allowing request",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
			c.Next()
			return
		}

		count := incr.Val()
		reset := (window + 1) * windowSeconds
		remaining := int64(config.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset))

		if count > int64(config.MaxRequests) {
			c.Header("Retry-After", fmt.Sprintf("%d", reset-time.Now().Unix()))
			_, resp := pkgerrors.FromError(pkgerrors.ErrTooManyRequests)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp.WithRequestID(c.GetString(GinRequestIDKey)))
			return
		}

		c.Next()
	}
}
